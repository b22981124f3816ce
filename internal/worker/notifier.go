package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"tutorbook/internal/amqp"
	applog "tutorbook/internal/log"
)

const (
	colorBefore  = 0x3498DB
	colorToday   = 0xF1C40F
	colorOverdue = 0xE74C3C
)

// EmbedSender is the part of *discordgo.Session the notifier uses.
type EmbedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers reminder.due messages to a Discord channel, or only
// logs them when no session is configured.
type Notifier struct {
	session   EmbedSender
	channelID string
	logger    *applog.Logger
}

// NewDiscordNotifier opens a bot session for posting reminders.
func NewDiscordNotifier(token, channelID string, logger *applog.Logger) (*Notifier, *discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating discord session: %w", err)
	}
	if err := dg.Open(); err != nil {
		return nil, nil, fmt.Errorf("error opening connection: %w", err)
	}
	return NewNotifier(dg, channelID, logger), dg, nil
}

// NewNotifier builds a notifier over session; a nil session logs only.
func NewNotifier(session EmbedSender, channelID string, logger *applog.Logger) *Notifier {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Notifier{
		session:   session,
		channelID: channelID,
		logger:    logger.WithComponent(applog.ComponentNotify),
	}
}

// Handlers returns the AMQP handler for reminder messages.
func (n *Notifier) Handlers() map[amqp.MessageType]amqp.Handler {
	return map[amqp.MessageType]amqp.Handler{
		amqp.TypeReminderDue: func(ctx context.Context, env *amqp.Envelope) error {
			var msg amqp.ReminderDueMessage
			if err := env.Decode(&msg); err != nil {
				return err
			}
			return n.HandleReminderDue(ctx, &msg)
		},
	}
}

func (n *Notifier) HandleReminderDue(ctx context.Context, msg *amqp.ReminderDueMessage) error {
	if n.session == nil {
		n.logger.InfoContext(ctx, "Reminder due",
			applog.FieldStudentID, msg.StudentID,
			"student_name", msg.StudentName,
			applog.FieldDueDate, msg.DueDate.String(),
			applog.FieldPhase, msg.Phase)
		return nil
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, ReminderEmbed(msg)); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	n.logger.InfoContext(ctx, "Reminder sent",
		applog.FieldOperation, applog.OpNotify,
		applog.FieldStudentID, msg.StudentID)
	return nil
}

// ReminderEmbed renders one reminder.
func ReminderEmbed(msg *amqp.ReminderDueMessage) *discordgo.MessageEmbed {
	title := "Fee due soon"
	color := colorBefore
	switch msg.Phase {
	case "today":
		title, color = "Fee due today", colorToday
	case "overdue":
		title, color = "Fee overdue", colorOverdue
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Student", Value: msg.StudentName, Inline: true},
		{Name: "Due date", Value: msg.DueDate.String(), Inline: true},
	}
	if fee := msg.Fee.String(); fee != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Fee", Value: fee, Inline: true})
	}
	if phone := strings.TrimSpace(msg.Phone); phone != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Phone", Value: phone, Inline: true})
	}

	return &discordgo.MessageEmbed{
		Title:  title,
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Reminder window: %d days before, %d after", msg.DaysBefore, msg.DaysAfter),
		},
	}
}
