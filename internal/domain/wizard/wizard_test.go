package wizard_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svamsi2006/balaveerulu/internal/domain/model"
	"github.com/Svamsi2006/balaveerulu/internal/domain/wizard"
)

func fullShipping() model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   "Lakshmi Rao",
		Email:      "lakshmi@example.com",
		Phone:      "9876543210",
		Address:    "12 MG Road",
		City:       "Vijayawada",
		State:      "Andhra Pradesh",
		PostalCode: "520001",
	}
}

// ShippingDetails まで進めたウィザード
func wizardAtShipping(t *testing.T) *wizard.Wizard {
	t.Helper()
	w := wizard.New()
	w.Data.ProductID = "space-explorer"
	require.NoError(t, w.Fire(wizard.EventNext))
	w.Data.Format = model.FormatPrint
	require.NoError(t, w.Fire(wizard.EventNext))
	w.Data.CharacterName = "Arjun"
	require.NoError(t, w.Fire(wizard.EventNext))
	require.NoError(t, w.Fire(wizard.EventNext))
	require.Equal(t, wizard.StepShippingDetails, w.Step)
	return w
}

func TestFire_NextWithoutProductIsNoop(t *testing.T) {
	w := wizard.New()

	err := w.Fire(wizard.EventNext)

	var ve *wizard.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "product_id", ve.Fields[0].Field)
	assert.Equal(t, wizard.StepSelectProduct, w.Step)
}

func TestFire_BackFromFirstStepNotAllowed(t *testing.T) {
	w := wizard.New()
	err := w.Fire(wizard.EventBack)
	assert.ErrorIs(t, err, wizard.ErrTransitionNotAllowed)
	assert.Equal(t, wizard.StepSelectProduct, w.Step)
}

func TestFire_BackPreservesSelectionAndFormatStillRequired(t *testing.T) {
	w := wizard.New()
	w.Data.ProductID = "magic-kingdom"
	require.NoError(t, w.Fire(wizard.EventNext))
	require.Equal(t, wizard.StepSelectFormat, w.Step)

	require.NoError(t, w.Fire(wizard.EventBack))
	assert.Equal(t, wizard.StepSelectProduct, w.Step)
	assert.Equal(t, "magic-kingdom", w.Data.ProductID)

	// 選び直さずに進める
	require.NoError(t, w.Fire(wizard.EventNext))
	assert.Equal(t, wizard.StepSelectFormat, w.Step)

	err := w.Fire(wizard.EventNext)
	var ve *wizard.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "format", ve.Fields[0].Field)
	assert.Equal(t, wizard.StepSelectFormat, w.Step)
}

func TestFire_PersonalizeRequiresTrimmedName(t *testing.T) {
	w := wizard.New()
	w.Data.ProductID = "space-explorer"
	w.Data.Format = model.FormatDigital
	require.NoError(t, w.Fire(wizard.EventNext))
	require.NoError(t, w.Fire(wizard.EventNext))

	w.Data.CharacterName = "   "
	assert.Error(t, w.Fire(wizard.EventNext))
	assert.Equal(t, wizard.StepPersonalize, w.Step)

	w.Data.CharacterName = " Meera "
	assert.NoError(t, w.Fire(wizard.EventNext))
	assert.Equal(t, wizard.StepPreview, w.Step)
}

func TestFire_ShippingDetailsReportsEveryMissingField(t *testing.T) {
	w := wizardAtShipping(t)

	err := w.Fire(wizard.EventNext)

	var ve *wizard.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	for _, name := range []string{"full_name", "email", "phone", "address", "city", "state", "postal_code"} {
		assert.True(t, fields[name], "missing %s", name)
	}
	assert.Equal(t, wizard.StepShippingDetails, w.Step)
}

func TestFire_MalformedEmailBlocksPayment(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	w.Data.Shipping.Email = "lakshmi-at-example"

	err := w.Fire(wizard.EventNext)
	var ve *wizard.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "email", ve.Fields[0].Field)
}

func TestFire_PaymentRevalidatesWholeState(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()

	// 途中のデータを壊す（直接書き換え）
	w.Data.CharacterName = ""

	err := w.Fire(wizard.EventNext)
	var ve *wizard.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "character_name", ve.Fields[0].Field)
	assert.Equal(t, wizard.StepShippingDetails, w.Step)

	w.Data.CharacterName = "Arjun"
	require.NoError(t, w.Fire(wizard.EventNext))
	assert.Equal(t, wizard.StepPayment, w.Step)
}

func TestFire_PaymentIsNotUserAdvanceable(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	require.NoError(t, w.Fire(wizard.EventNext))

	err := w.Fire(wizard.EventNext)
	assert.ErrorIs(t, err, wizard.ErrTransitionNotAllowed)
	assert.Equal(t, wizard.StepPayment, w.Step)
}

func TestFire_PaymentDismissedReturnsToShippingWithData(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	require.NoError(t, w.Fire(wizard.EventNext))
	w.Checkout = &wizard.Checkout{AmountMinor: 79900, Currency: "INR"}

	require.NoError(t, w.Fire(wizard.EventPaymentDismissed))

	assert.Equal(t, wizard.StepShippingDetails, w.Step)
	assert.Equal(t, fullShipping(), w.Data.Shipping)
	assert.Equal(t, wizard.NoticePaymentCancelled, w.Notice)
	// 遅れて届く成功通知のために控えは残る
	require.NotNil(t, w.Checkout)
	assert.True(t, w.AwaitingPayment())
}

func TestRestart_KeepsUnsettledCheckout(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	require.NoError(t, w.Fire(wizard.EventNext))
	w.Checkout = &wizard.Checkout{AmountMinor: 79900, Currency: "INR"}

	fresh := w.Restart()
	assert.Equal(t, wizard.StepSelectProduct, fresh.Step)
	assert.Equal(t, wizard.Data{}, fresh.Data)
	assert.Equal(t, w.Checkout, fresh.Checkout)

	require.NoError(t, w.Fire(wizard.EventPaymentSucceeded))
	assert.False(t, w.AwaitingPayment())
	assert.Nil(t, w.Restart().Checkout)
}

func TestFire_PaymentFailedHasDistinctNotice(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	require.NoError(t, w.Fire(wizard.EventNext))

	require.NoError(t, w.Fire(wizard.EventPaymentFailed))
	assert.Equal(t, wizard.StepShippingDetails, w.Step)
	assert.Equal(t, wizard.NoticePaymentFailed, w.Notice)

	// もう一度進めば通知は消える
	require.NoError(t, w.Fire(wizard.EventNext))
	assert.Equal(t, wizard.NoticeNone, w.Notice)
}

func TestFire_ConfirmedIsTerminal(t *testing.T) {
	w := wizardAtShipping(t)
	w.Data.Shipping = fullShipping()
	require.NoError(t, w.Fire(wizard.EventNext))
	require.NoError(t, w.Fire(wizard.EventPaymentSucceeded))
	assert.True(t, w.Complete())

	for _, ev := range []wizard.Event{wizard.EventNext, wizard.EventBack, wizard.EventPaymentDismissed, wizard.EventPaymentSucceeded} {
		assert.ErrorIs(t, w.Fire(ev), wizard.ErrTransitionNotAllowed)
	}
	assert.Equal(t, wizard.StepConfirmed, w.Step)
}

func TestFire_PaymentEventsOnlyFromPayment(t *testing.T) {
	w := wizardAtShipping(t)
	assert.ErrorIs(t, w.Fire(wizard.EventPaymentSucceeded), wizard.ErrTransitionNotAllowed)
	assert.ErrorIs(t, w.Fire(wizard.EventPaymentDismissed), wizard.ErrTransitionNotAllowed)
	assert.Equal(t, wizard.StepShippingDetails, w.Step)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "shipping_details", wizard.StepShippingDetails.String())
	assert.Equal(t, "unknown", wizard.Step(42).String())
	assert.False(t, wizard.Step(0).Valid())
}
