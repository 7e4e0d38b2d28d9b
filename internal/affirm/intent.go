package affirm

// Intents name the prompt definition and opener bank a request resolves to.
const (
	IntentMotivate = "motivate"
	IntentRefocus  = "refocus"
	IntentReflect  = "reflect"
	IntentSoothe   = "soothe"
)

// IntentFor maps a normalized day period to its generation intent.
func IntentFor(period string) string {
	switch period {
	case PeriodAfternoon:
		return IntentRefocus
	case PeriodEvening:
		return IntentReflect
	case PeriodNight:
		return IntentSoothe
	default:
		return IntentMotivate
	}
}
