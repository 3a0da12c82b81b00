package module

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/errors"
)

// Event listener types accepted by the event_listener module option.
const (
	ListenerStatic   = "static"
	ListenerWeekday  = "weekday"
	ListenerPeriodic = "periodic"
)

// Never is returned by TimeUntilNext for listeners whose event cannot change.
const Never = time.Duration(math.MaxInt64)

// DefaultPeriod is the interval of a periodic listener without units.
const DefaultPeriod = time.Hour

// EventListener yields the current event name of a module and when it
// changes next.
type EventListener interface {
	Type() string
	Event() string
	TimeUntilNext() time.Duration
}

// StaticListener always reports the same event.
type StaticListener struct {
	event string
}

func (l *StaticListener) Type() string                 { return ListenerStatic }
func (l *StaticListener) Event() string                { return l.event }
func (l *StaticListener) TimeUntilNext() time.Duration { return Never }

// WeekdayListener reports the lowercase name of the local weekday.
type WeekdayListener struct {
	now func() time.Time
}

func (l *WeekdayListener) Type() string { return ListenerWeekday }

func (l *WeekdayListener) Event() string {
	return strings.ToLower(l.now().Weekday().String())
}

// TimeUntilNext returns the time left until local midnight.
func (l *WeekdayListener) TimeUntilNext() time.Duration {
	now := l.now()
	year, month, day := now.Date()
	midnight := time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}

// PeriodicListener counts the whole intervals elapsed since it was created.
// The first event is "0".
type PeriodicListener struct {
	interval time.Duration
	start    time.Time
	now      func() time.Time
}

func (l *PeriodicListener) Type() string { return ListenerPeriodic }

// Interval returns the length of one period.
func (l *PeriodicListener) Interval() time.Duration { return l.interval }

func (l *PeriodicListener) Event() string {
	return strconv.FormatInt(int64(l.elapsed()/l.interval), 10)
}

func (l *PeriodicListener) TimeUntilNext() time.Duration {
	return l.interval - l.elapsed()%l.interval
}

func (l *PeriodicListener) elapsed() time.Duration {
	elapsed := l.now().Sub(l.start)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

var periodUnits = []struct {
	key  string
	unit time.Duration
}{
	{"seconds", time.Second},
	{"minutes", time.Minute},
	{"hours", time.Hour},
	{"days", 24 * time.Hour},
}

// NewEventListener builds a listener from an event_listener option, either
// a type name or a mapping with a type key. A nil value gives a static
// listener with an empty event; now is the clock, time.Now when nil.
//
//	event_listener: weekday
//	event_listener: {type: periodic, minutes: 30}
//	event_listener: {type: static, event: night}
func NewEventListener(raw any, now func() time.Time) (EventListener, error) {
	if now == nil {
		now = time.Now
	}

	options := actions.Options{}
	switch v := raw.(type) {
	case nil:
	case string:
		options["type"] = v
	default:
		parsed, ok := actions.ToOptions(v)
		if !ok {
			return nil, errors.Newf(errors.ErrConfigValid, "event_listener must be a type name or a mapping, got %T", raw)
		}
		options = parsed
	}

	kind := ListenerStatic
	if t, ok := options["type"]; ok && t != nil {
		kind = strings.ToLower(fmt.Sprint(t))
	}

	switch kind {
	case ListenerStatic:
		event := ""
		if e, ok := options["event"]; ok && e != nil {
			event = fmt.Sprint(e)
		}
		return &StaticListener{event: event}, nil
	case ListenerWeekday:
		return &WeekdayListener{now: now}, nil
	case ListenerPeriodic:
		interval, err := periodInterval(options)
		if err != nil {
			return nil, err
		}
		return &PeriodicListener{interval: interval, start: now(), now: now}, nil
	}
	return nil, errors.Newf(errors.ErrConfigValid, "unknown event_listener type %q", kind).
		WithDetail("type", kind)
}

func periodInterval(options actions.Options) (time.Duration, error) {
	var interval time.Duration
	for _, u := range periodUnits {
		raw, ok := options[u.key]
		if !ok || raw == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(raw)), 64)
		if err != nil || value < 0 {
			return 0, errors.Newf(errors.ErrConfigValid, "event_listener %s must be a non-negative number, got %v", u.key, raw)
		}
		interval += time.Duration(value * float64(u.unit))
	}
	if interval <= 0 {
		return DefaultPeriod, nil
	}
	return interval, nil
}
