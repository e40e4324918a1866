package debug

import (
	"sync"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
	"golang.org/x/exp/slog"
)

// Filter routes validation-layer messages to a logger, dropping messages
// whose IDs are under an active Suppression. Safe for concurrent use; the
// validation layers may invoke the callback from any thread.
type Filter struct {
	logger *slog.Logger

	mutex      sync.Mutex
	suppressed *swiss.Map[int32, int]
}

// NewFilter creates a Filter that logs unsuppressed messages to logger.
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Filter{
		logger:     logger,
		suppressed: swiss.NewMap[int32, int](8),
	}
}

// Suppression holds a set of message IDs quiet until released. Suppressions
// nest: an ID stays quiet until every Suppression naming it has been
// released.
type Suppression struct {
	filter *Filter
	ids    []int32
}

// Suppress begins suppressing the named message IDs. The returned
// Suppression scopes the effect; release it as soon as the known-benign
// calls complete.
func (f *Filter) Suppress(ids ...int32) *Suppression {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, id := range ids {
		count, _ := f.suppressed.Get(id)
		f.suppressed.Put(id, count+1)
	}

	return &Suppression{
		filter: f,
		ids:    ids,
	}
}

// Release ends the suppression. Releasing twice is a no-op.
func (s *Suppression) Release() {
	if s.filter == nil {
		return
	}

	s.filter.mutex.Lock()
	defer s.filter.mutex.Unlock()

	for _, id := range s.ids {
		count, _ := s.filter.suppressed.Get(id)
		if count <= 1 {
			s.filter.suppressed.Delete(id)
		} else {
			s.filter.suppressed.Put(id, count-1)
		}
	}

	s.filter = nil
	s.ids = nil
}

func (f *Filter) isSuppressed(id int32) bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	_, present := f.suppressed.Get(id)
	return present
}

// Callback is the messenger callback. It returns false unconditionally, as
// the API requires for callbacks that do not abort the offending call.
func (f *Filter) Callback(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	if f.isSuppressed(int32(data.MessageIDNumber)) {
		return false
	}

	attrs := []any{
		slog.String("type", msgType.String()),
		slog.String("messageID", data.MessageIDName),
	}

	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		f.logger.Error(data.Message, attrs...)
	case severity&ext_debug_utils.SeverityWarning != 0:
		f.logger.Warn(data.Message, attrs...)
	case severity&ext_debug_utils.SeverityInfo != 0:
		f.logger.Info(data.Message, attrs...)
	default:
		f.logger.Debug(data.Message, attrs...)
	}

	return false
}
