// Package providers registers every built-in provider with video_harvester.DefaultProviderRegistry.
package providers

import (
	_ "github.com/alanbriolat/video-harvester/provider/youtube"
)
