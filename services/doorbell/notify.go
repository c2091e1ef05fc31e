package doorbell

import (
	"fmt"

	"github.com/barnybug/doorbell/config"
	"github.com/barnybug/doorbell/lib/mail"
	"github.com/barnybug/doorbell/util"
)

const (
	notificationSubject  = "Wifi Doorbell"
	notificationPreamble = "Someone rang at your door!"
)

// NewNotification builds the email sent on a ring, linking to the meeting and
// to the lock server.
func NewNotification(conf *config.Config, meetingURL string) *mail.Message {
	body := fmt.Sprintf("A visitor is waiting outside your door. If you want to talk to them click here: %s\n\n"+
		"If you want to open the door for them, click here: %s\n\n"+
		"The call stays open for %s.\n",
		meetingURL, conf.UnlockURL(), util.FriendlyDuration(conf.Meeting.Active.Duration))
	return &mail.Message{
		From:     conf.Email.From,
		To:       conf.Email.To,
		Subject:  notificationSubject,
		Preamble: notificationPreamble,
		Body:     body,
	}
}
