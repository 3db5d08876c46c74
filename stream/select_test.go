package stream

import (
	"errors"
	"sync"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/video-harvester/generic"
)

func video(id, container, quality string) MediaStream {
	return MediaStream{ID: id, Container: container, Kind: KindVideoOnly, VideoQuality: generic.Some(quality)}
}

func audio(id, container, quality string) MediaStream {
	return MediaStream{ID: id, Container: container, Kind: KindAudioOnly, AudioQuality: generic.Some(quality)}
}

func requireReason(t *testing.T, err error, reason Reason) {
	require := require_.New(t)
	require.Error(err)
	require.ErrorIs(err, ErrNoEligibleStream)
	var target *NoEligibleStreamError
	require.True(errors.As(err, &target))
	require.Equal(reason, target.Reason)
}

func TestSelectBest_VideoWithContainerFilter(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("A", "mp4", "480p"),
		video("B", "mp4", "1080p"),
		video("C", "webm", "2160p"),
	}
	s, err := SelectBest(streams, Request{Metric: MetricVideo, Container: "mp4"})
	assert.NoError(err)
	assert.Equal("B", s.ID)

	// Without the filter the webm stream wins.
	s, err = SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal("C", s.ID)
}

func TestSelectBest_AudioAnyContainer(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		audio("X", "mp3", "128kbps"),
		audio("Y", "mp3", "320kbps"),
	}
	s, err := SelectBest(streams, Request{Metric: MetricAudio})
	assert.NoError(err)
	assert.Equal("Y", s.ID)
}

func TestSelectBest_MissingQuality(t *testing.T) {
	streams := []MediaStream{{ID: "Z", Container: "mp4", Kind: KindVideoOnly}}
	_, err := SelectBest(streams, Request{Metric: MetricVideo})
	requireReason(t, err, ReasonMetricFilterExhausted)

	// A video-only stream never satisfies an audio request.
	_, err = SelectBest([]MediaStream{video("A", "mp4", "720p")}, Request{Metric: MetricAudio})
	requireReason(t, err, ReasonMetricFilterExhausted)
}

func TestSelectBest_EmptyInput(t *testing.T) {
	_, err := SelectBest(nil, Request{Metric: MetricVideo})
	requireReason(t, err, ReasonEmptyInput)
	_, err = SelectBest([]MediaStream{}, Request{Metric: MetricAudio, Container: "m4a"})
	requireReason(t, err, ReasonEmptyInput)
}

func TestSelectBest_ContainerFilterExhausted(t *testing.T) {
	streams := []MediaStream{video("A", "mp4", "720p"), video("B", "", "1080p")}
	_, err := SelectBest(streams, Request{Metric: MetricVideo, Container: "webm"})
	requireReason(t, err, ReasonContainerFilterExhausted)
	assert_.Contains(t, err.Error(), "webm")
}

func TestSelectBest_UnparseableLabelsSkipped(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("A", "mp4", "hd"),
		video("B", "mp4", "360p"),
		video("C", "mp4", ""),
	}
	s, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal("B", s.ID)

	_, err = SelectBest([]MediaStream{video("A", "mp4", "hd"), video("C", "mp4", "")}, Request{Metric: MetricVideo})
	requireReason(t, err, ReasonMetricFilterExhausted)
}

func TestSelectBest_MultipleNumericRuns(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("A", "mp4", "720p60"),
		video("B", "mp4", "1080p30"),
		video("C", "mp4", "1440p"),
	}
	s, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal("C", s.ID)
}

func TestSelectBest_MissingContainerAcceptedWithoutFilter(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("A", "mp4", "720p"),
		video("B", "", "1080p"),
	}
	s, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal("B", s.ID)

	s, err = SelectBest(streams, Request{Metric: MetricVideo, Container: "mp4"})
	assert.NoError(err)
	assert.Equal("A", s.ID)
}

func TestSelectBest_TieGoesToFirst(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		audio("low", "m4a", "48kbps"),
		audio("first", "m4a", "160kbps"),
		audio("second", "webm", "160kbps"),
		audio("third", "m4a", "160kbps"),
	}
	for i := 0; i < 10; i++ {
		s, err := SelectBest(streams, Request{Metric: MetricAudio})
		assert.NoError(err)
		assert.Equal("first", s.ID)
	}
}

func TestSelectBest_CombinedStreamsCarryBothMetrics(t *testing.T) {
	assert := assert_.New(t)
	combined := MediaStream{
		ID:           "18",
		Container:    "mp4",
		Kind:         KindCombined,
		VideoQuality: generic.Some("360p"),
		AudioQuality: generic.Some("96kbps"),
	}
	streams := []MediaStream{combined, video("137", "mp4", "1080p"), audio("140", "m4a", "128kbps")}

	v, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal("137", v.ID)
	a, err := SelectBest(streams, Request{Metric: MetricAudio})
	assert.NoError(err)
	assert.Equal("140", a.ID)

	v, err = SelectBest(OfKind(streams, KindCombined), Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal(combined, v)
}

func TestSelectBest_ResultIsMaximalAndInputUntouched(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("a", "mp4", "144p"),
		video("b", "webm", "720p"),
		{ID: "c", Container: "mp4", Kind: KindVideoOnly},
		video("d", "mp4", "1080p"),
		video("e", "webm", "1080p"),
		video("f", "mp4", "240p"),
	}
	before := append([]MediaStream(nil), streams...)

	s, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	selected := ParseQuality(s.VideoQuality.Unwrap()).Unwrap()
	for _, other := range streams {
		if q, ok := generic.AndThen(other.VideoQuality, ParseQuality).Get(); ok {
			assert.GreaterOrEqual(selected, q)
		}
	}
	assert.Equal("d", s.ID)
	assert.Equal(before, streams)

	again, err := SelectBest(streams, Request{Metric: MetricVideo})
	assert.NoError(err)
	assert.Equal(s, again)
}

func TestSelectBest_Concurrent(t *testing.T) {
	streams := []MediaStream{
		video("v1", "mp4", "720p"),
		video("v2", "mp4", "1080p"),
		audio("a1", "m4a", "128kbps"),
		audio("a2", "webm", "160kbps"),
	}
	var wg sync.WaitGroup
	results := make(chan string, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s, _ := SelectBest(streams, Request{Metric: MetricVideo})
			results <- s.ID
		}()
		go func() {
			defer wg.Done()
			s, _ := SelectBest(streams, Request{Metric: MetricAudio, Container: "m4a"})
			results <- s.ID
		}()
	}
	wg.Wait()
	close(results)
	counts := map[string]int{}
	for id := range results {
		counts[id]++
	}
	assert_.Equal(t, map[string]int{"v2": 50, "a1": 50}, counts)
}

func TestOfKind(t *testing.T) {
	assert := assert_.New(t)
	streams := []MediaStream{
		video("v", "mp4", "720p"),
		audio("a", "m4a", "128kbps"),
		{ID: "c", Kind: KindCombined},
		{ID: "u"},
	}
	assert.Equal([]string{"v", "c"}, ids(OfKind(streams, KindVideoOnly, KindCombined)))
	assert.Equal([]string{"u"}, ids(OfKind(streams, KindUnknown)))
	assert.Empty(OfKind(streams))
}

func TestKind(t *testing.T) {
	assert := assert_.New(t)
	assert.True(KindCombined.HasVideo())
	assert.True(KindCombined.HasAudio())
	assert.True(KindVideoOnly.HasVideo())
	assert.False(KindVideoOnly.HasAudio())
	assert.False(KindAudioOnly.HasVideo())
	assert.False(KindUnknown.HasAudio())
	assert.Equal("audio-only", KindAudioOnly.String())
}

func ids(streams []MediaStream) []string {
	var res []string
	for _, s := range streams {
		res = append(res, s.ID)
	}
	return res
}
