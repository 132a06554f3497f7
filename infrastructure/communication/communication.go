package communication

import (
	"fmt"

	"github.com/slack-go/slack"

	"tadbeer.com/hrms/config"
)

type Slack struct {
	client  *slack.Client
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
}

// ConnectSlack builds the ops notifier from config. Returns nil when no
// bot token is configured; callers treat nil as "notifications off".
func ConnectSlack() *Slack {
	token := config.Cfg.SlackBotToken
	if token == "" {
		return nil
	}
	return NewSlack(token, SlackOption{
		InfoChannelID:  config.Cfg.SlackInfoChannel,
		ErrorChannelID: config.Cfg.SlackErrorChannel,
	})
}

func NewSlack(token string, options SlackOption) *Slack {
	client := slack.New(token)
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(channelID, message string) error {
	_, _, err := s.client.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(message string) error {
	return s.postMessage(s.options.InfoChannelID, message)
}

func (s *Slack) Error(message string) error {
	return s.postMessage(s.options.ErrorChannelID, message)
}
