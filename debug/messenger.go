package debug

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/ext_debug_utils"
)

// MessengerCreateInfo builds the messenger creation parameters that route
// every message type at warning severity and above through filter.
func MessengerCreateInfo(filter *Filter) ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    filter.Callback,
	}
}

// CreateMessenger registers filter as a debug messenger on instance. The
// returned messenger must be destroyed before the instance.
func CreateMessenger(instance core1_0.Instance, filter *Filter) (ext_debug_utils.DebugUtilsMessenger, error) {
	extension := ext_debug_utils.CreateExtensionFromInstance(instance)
	if extension == nil {
		return nil, errors.New("instance does not carry the debug utils extension")
	}

	messenger, _, err := extension.CreateDebugUtilsMessenger(instance, nil, MessengerCreateInfo(filter))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a debug messenger")
	}

	return messenger, nil
}
