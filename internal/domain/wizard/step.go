package wizard

// Step はウィザードの画面（1〜6）と終端の Confirmed
type Step int

const (
	StepSelectProduct Step = iota + 1
	StepSelectFormat
	StepPersonalize
	StepPreview
	StepShippingDetails
	StepPayment

	// 6ステップの外側（確認画面）
	StepConfirmed
)

var stepNames = map[Step]string{
	StepSelectProduct:   "select_product",
	StepSelectFormat:    "select_format",
	StepPersonalize:     "personalize",
	StepPreview:         "preview",
	StepShippingDetails: "shipping_details",
	StepPayment:         "payment",
	StepConfirmed:       "confirmed",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// Event はステップを動かす入力
type Event string

const (
	EventNext             Event = "next"
	EventBack             Event = "back"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentDismissed Event = "payment_dismissed"
	EventPaymentFailed    Event = "payment_failed"
)

// 遷移表（from → event → to）
var transitions = map[Step]map[Event]Step{
	StepSelectProduct: {
		EventNext: StepSelectFormat,
	},
	StepSelectFormat: {
		EventNext: StepPersonalize,
		EventBack: StepSelectProduct,
	},
	StepPersonalize: {
		EventNext: StepPreview,
		EventBack: StepSelectFormat,
	},
	StepPreview: {
		EventNext: StepShippingDetails,
		EventBack: StepPersonalize,
	},
	StepShippingDetails: {
		EventNext: StepPayment,
		EventBack: StepPreview,
	},
	StepPayment: {
		EventBack:             StepShippingDetails,
		EventPaymentSucceeded: StepConfirmed,
		EventPaymentDismissed: StepShippingDetails,
		EventPaymentFailed:    StepShippingDetails,
	},
	StepConfirmed: {},
}
