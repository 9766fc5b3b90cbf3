package publish

import "github.com/rs/zerolog"

// ZerologSink is the reference EventSink: an informational "Log statistics"
// record carrying one field per tag, and a warn-level "Pruning
// stats-counters have finished" record carrying dropped/oldest-timestamp
// (zerolog has no notice level), shaped through a single *zerolog.Logger
// like every other daemon log line.
type ZerologSink struct {
	log zerolog.Logger
}

// NewZerologSink wraps log as an EventSink.
func NewZerologSink(log zerolog.Logger) *ZerologSink {
	return &ZerologSink{log: log}
}

func (s *ZerologSink) LogStatistics(tags []Tag) {
	evt := s.log.Info()
	for _, tag := range tags {
		evt = evt.Str(tag.Name, tag.Value)
	}
	evt.Msg("Log statistics")
}

func (s *ZerologSink) PruningFinished(droppedCount int, oldestTimestamp int64) {
	s.log.Warn().
		Int("dropped", droppedCount).
		Int64("oldest-timestamp", oldestTimestamp).
		Msg("Pruning stats-counters have finished")
}
