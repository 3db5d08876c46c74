package stream

import (
	"errors"
	"fmt"

	"github.com/alanbriolat/video-harvester/generic"
)

// Metric is the quality dimension a Request maximises.
type Metric int

const (
	MetricVideo Metric = iota
	MetricAudio
)

func (m Metric) String() string {
	switch m {
	case MetricVideo:
		return "video"
	case MetricAudio:
		return "audio"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// A Request describes which stream SelectBest should pick.
type Request struct {
	Metric Metric
	// Container restricts candidates to this container; "" accepts any container, including none.
	Container string
}

func (r Request) String() string {
	if r.Container == "" {
		return fmt.Sprintf("best %v in any container", r.Metric)
	}
	return fmt.Sprintf("best %v in %s", r.Metric, r.Container)
}

var ErrNoEligibleStream = errors.New("no eligible stream")

// Reason records which filter left SelectBest with nothing to choose from.
type Reason int

const (
	ReasonEmptyInput Reason = iota
	ReasonContainerFilterExhausted
	ReasonMetricFilterExhausted
)

func (r Reason) String() string {
	switch r {
	case ReasonEmptyInput:
		return "no candidate streams"
	case ReasonContainerFilterExhausted:
		return "no stream matches the container filter"
	case ReasonMetricFilterExhausted:
		return "no stream has a usable quality"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// NoEligibleStreamError is returned when no candidate satisfies a Request. errors.Is(err, ErrNoEligibleStream) holds
// for every Reason.
type NoEligibleStreamError struct {
	Reason  Reason
	Request Request
}

func (e *NoEligibleStreamError) Error() string {
	return fmt.Sprintf("%v: %v (wanted %v)", ErrNoEligibleStream, e.Reason, e.Request)
}

func (e *NoEligibleStreamError) Is(target error) bool {
	return target == ErrNoEligibleStream
}

// SelectBest returns the stream with the highest quality for req.Metric among those in req.Container. Streams whose
// quality label is missing or has no number are skipped. Ties go to the earliest stream. The input is not modified.
func SelectBest(streams []MediaStream, req Request) (MediaStream, error) {
	if len(streams) == 0 {
		return MediaStream{}, &NoEligibleStreamError{Reason: ReasonEmptyInput, Request: req}
	}

	var best generic.Option[MediaStream]
	bestQuality := 0
	containerMatched := false
	for _, s := range streams {
		if req.Container != "" && s.Container != req.Container {
			continue
		}
		containerMatched = true
		q, ok := generic.AndThen(s.Quality(req.Metric), ParseQuality).Get()
		if !ok {
			continue
		}
		if best.IsNone() || q > bestQuality {
			best = generic.Some(s)
			bestQuality = q
		}
	}

	if s, ok := best.Get(); ok {
		return s, nil
	} else if !containerMatched {
		return MediaStream{}, &NoEligibleStreamError{Reason: ReasonContainerFilterExhausted, Request: req}
	} else {
		return MediaStream{}, &NoEligibleStreamError{Reason: ReasonMetricFilterExhausted, Request: req}
	}
}
