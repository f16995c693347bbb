package mailer

import (
	"errors"
	"log"
	"os"

	"github.com/matcornic/hermes/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendWelcomeEmail sends the newsletter confirmation. Callers treat failures
// as best-effort: a subscription is recorded whether or not the email lands.
func SendWelcomeEmail(toEmail, unsubscribeURL string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		log.Println("[mailer] SENDGRID_API_KEY not set, skipping welcome email")
		return nil
	}

	h := hermes.Hermes{
		Product: hermes.Product{
			Name: "Stitchup",
			Link: os.Getenv("STOREFRONT_URL"),
		},
	}

	email := hermes.Email{
		Body: hermes.Body{
			Greeting: "Hey",
			Intros: []string{
				"Welcome to the Stitchup newsletter.",
				"You'll be first to hear about new drops and restocks.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "If this wasn't you, unsubscribe here:",
					Button: hermes.Button{
						Text: "Unsubscribe",
						Link: unsubscribeURL,
					},
				},
			},
			Outros: []string{
				"Thanks for being here.",
			},
		},
	}

	htmlBody, err := h.GenerateHTML(email)
	if err != nil {
		return err
	}
	textBody, err := h.GeneratePlainText(email)
	if err != nil {
		return err
	}

	fromAddress := os.Getenv("MAIL_FROM")
	if fromAddress == "" {
		fromAddress = "hello@stitchup.shop"
	}

	from := mail.NewEmail("Stitchup", fromAddress)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, "Welcome to Stitchup", to, textBody, htmlBody)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return errors.New("sendgrid rejected the message: " + response.Body)
	}
	return nil
}
