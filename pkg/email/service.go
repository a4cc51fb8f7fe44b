package email

import "estatelink_backend/pkg/config"

var GlobalEmailService *EmailService

func InitEmailService(cfg config.MailConfig) error {
	service, err := NewEmailService(NewSenderFromConfig(cfg))
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
