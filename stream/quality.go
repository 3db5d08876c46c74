package stream

import (
	"strconv"

	"github.com/alanbriolat/video-harvester/generic"
)

// ParseQuality extracts the magnitude from a quality label by taking its first run of decimal digits and discarding
// everything else, so "720p" gives 720, "160kbps" gives 160 and "1080p60" gives 1080. Labels without digits, or whose
// digits overflow an int, give None.
func ParseQuality(label string) generic.Option[int] {
	start := -1
	end := len(label)
	for i := 0; i < len(label); i++ {
		isDigit := label[i] >= '0' && label[i] <= '9'
		if start < 0 && isDigit {
			start = i
		} else if start >= 0 && !isDigit {
			end = i
			break
		}
	}
	if start < 0 {
		return generic.None[int]()
	}
	n, err := strconv.Atoi(label[start:end])
	if err != nil {
		return generic.None[int]()
	}
	return generic.Some(n)
}
