package quote

import (
	"fmt"
	"strings"

	"dumpster-quote/internal/render"
	"dumpster-quote/pkg/sms"
)

const (
	roleAssistant = "assistant"
	roleUser      = "user"

	BookingQuestion = "Would you like to book this dumpster?"
	BookingYes      = "Yes, book now"
)

func estimateSummary(sess *Session) string {
	b := sess.Breakdown
	var sb strings.Builder
	fmt.Fprintf(&sb, "Estimated total for a %d-yard dumpster for %d %s: %s",
		b.Size, b.DurationDays, plural(b.DurationDays, "day", "days"), render.FormatDollars(b.FinalPrice))
	if b.VeteranDiscount.IsPositive() {
		sb.WriteString(" (veteran discount applied)")
	}
	sb.WriteString(".")
	if sess.Request != nil && !sess.Request.DeliveryDate.IsZero() {
		fmt.Fprintf(&sb, " Delivery on %s.", sess.Request.DeliveryDate.Format("Mon, Jan 2"))
	}
	return sb.String()
}

// buildTranscript replays the widget conversation that led to the text.
func buildTranscript(sess *Session) []sms.TranscriptEntry {
	return []sms.TranscriptEntry{
		{Role: roleAssistant, Content: estimateSummary(sess)},
		{Role: roleAssistant, Content: BookingQuestion},
		{Role: roleUser, Content: BookingYes},
		{Role: roleUser, Content: sess.Booking.Intent.Contact},
	}
}

func buildTextMessage(sess *Session, phone, businessPhone string) sms.Message {
	message := fmt.Sprintf(
		"Thanks for your dumpster quote! %s Reply to this text to confirm your booking or call %s.",
		estimateSummary(sess), businessPhone)

	return sms.Message{
		Phone:      phone,
		Message:    message,
		Transcript: buildTranscript(sess),
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
