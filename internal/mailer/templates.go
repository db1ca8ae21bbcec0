package mailer

import (
	"fmt"
	"html"
)

// PaymentLink is the email that carries an invoice checkout link.
func PaymentLink(to, name, invoiceID, amount, link string) Message {
	body := fmt.Sprintf(`
		<h2>Payment request %s</h2>
		<p>Dear %s,</p>
		<p>Please use the secure link below to pay <strong>£%s</strong>.</p>
		<p><a href="%s">Pay now</a></p>
		<p>Kind regards,<br>The Conveyancing Team</p>
	`, html.EscapeString(invoiceID), html.EscapeString(name), html.EscapeString(amount), html.EscapeString(link))

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Payment request %s", invoiceID),
		HTML:    body,
	}
}

// QuoteSent carries a quote to the client with the rendered PDF attached.
func QuoteSent(to, name, quoteID string, version int, total string, doc []byte) Message {
	body := fmt.Sprintf(`
		<h2>Your conveyancing quote %s</h2>
		<p>Dear %s,</p>
		<p>Please find attached our quote for your conveyancing, totalling <strong>£%s</strong> including VAT.</p>
		<p>Reply to this email if you would like to go ahead or have any questions.</p>
		<p>Kind regards,<br>The Conveyancing Team</p>
	`, html.EscapeString(quoteID), html.EscapeString(name), html.EscapeString(total))

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your conveyancing quote %s", quoteID),
		HTML:    body,
		Attachment: &Attachment{
			Name: fmt.Sprintf("%s-v%d.pdf", quoteID, version),
			Data: doc,
		},
	}
}
