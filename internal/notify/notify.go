package notify

import (
	"context"
	"fmt"
	"strings"

	"dumpster-quote/internal/booking"
	"dumpster-quote/internal/storage"
)

type Notifier interface {
	NotifyLead(ctx context.Context, lead storage.Lead)
}

// Multi fans a lead out to every configured staff channel.
type Multi []Notifier

func (m Multi) NotifyLead(ctx context.Context, lead storage.Lead) {
	for _, n := range m {
		n.NotifyLead(ctx, lead)
	}
}

// Nop is used when no staff channel is configured.
type Nop struct{}

func (Nop) NotifyLead(context.Context, storage.Lead) {}

func leadSubject(lead storage.Lead) string {
	return fmt.Sprintf("New dumpster lead: %d yd, %d days, $%s", lead.Size, lead.DurationDays, lead.FinalPrice.StringFixed(2))
}

// FormatLead renders the plain-text lead summary staff use for the follow-up call.
func FormatLead(lead storage.Lead) string {
	var sb strings.Builder

	if lead.ID != 0 {
		fmt.Fprintf(&sb, "New lead #%d\n", lead.ID)
	} else {
		sb.WriteString("New lead\n")
	}

	contact := lead.Contact
	if lead.ContactKind == string(booking.ContactPhone) {
		contact = booking.FormatPhoneNumber(lead.Contact)
	}

	fmt.Fprintf(&sb, "Contact: %s (%s)\n", contact, lead.ContactKind)
	fmt.Fprintf(&sb, "Via: %s\n", channelLabel(lead.Channel))
	fmt.Fprintf(&sb, "Dumpster: %d yd for %d days\n", lead.Size, lead.DurationDays)
	fmt.Fprintf(&sb, "ZIP: %s\n", lead.ZipCode)
	if lead.DeliveryDate != nil {
		fmt.Fprintf(&sb, "Delivery: %s\n", lead.DeliveryDate.Format("Mon, Jan 2 2006"))
	}
	if lead.IsVeteran {
		sb.WriteString("Veteran: yes\n")
	}
	fmt.Fprintf(&sb, "Estimate: $%s", lead.FinalPrice.StringFixed(2))

	return sb.String()
}

func channelLabel(channel string) string {
	switch channel {
	case storage.ChannelSMS:
		return "text me button"
	case storage.ChannelForm:
		return "contact form"
	default:
		return channel
	}
}
