package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gregdel/pushover"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/medinfo/backend/internal/models"
)

// Notifier delivers a dose reminder to a user.
type Notifier interface {
	Notify(recipientKey, title, message string) error
}

// pushoverNotifier sends reminders through the Pushover API.
type pushoverNotifier struct {
	app *pushover.Pushover
}

// NewPushoverNotifier creates a Notifier for the given application token, or
// nil when no token is configured (reminders are then marked without
// delivery).
func NewPushoverNotifier(token string) Notifier {
	if token == "" {
		return nil
	}
	return &pushoverNotifier{app: pushover.New(token)}
}

func (n *pushoverNotifier) Notify(recipientKey, title, message string) error {
	recipient := pushover.NewRecipient(recipientKey)
	msg := pushover.NewMessageWithTitle(message, title)
	_, err := n.app.SendMessage(msg, recipient)
	return err
}

// ReminderService owns scheduled doses: users add entries, a cron sweep
// notifies once the scheduled time passes.
type ReminderService struct {
	db       *gorm.DB
	notifier Notifier
	cron     *cron.Cron
}

func NewReminderService(db *gorm.DB, notifier Notifier) *ReminderService {
	return &ReminderService{
		db:       db,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start schedules the minutely sweep. Call Stop on shutdown.
func (s *ReminderService) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.Sweep(time.Now()); err != nil {
			log.Printf("[reminder] sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the sweep and waits for a running one to finish.
func (s *ReminderService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleDose adds a reminder for the user.
func (s *ReminderService) ScheduleDose(email, medicationName string, at time.Time) (*models.ScheduledDose, error) {
	dose := models.ScheduledDose{
		ID:             uuid.New(),
		UserEmail:      NormalizeEmail(email),
		MedicationName: NormalizeName(medicationName),
		ScheduledTime:  at,
	}
	if err := s.db.Create(&dose).Error; err != nil {
		return nil, err
	}
	return &dose, nil
}

// ListSchedule returns the user's scheduled doses, soonest first.
func (s *ReminderService) ListSchedule(email string) ([]models.ScheduledDose, error) {
	var doses []models.ScheduledDose
	err := s.db.Where("user_email = ?", NormalizeEmail(email)).
		Order("scheduled_time ASC").
		Find(&doses).Error
	return doses, err
}

// Sweep finds due, un-notified doses, delivers each reminder and marks it
// notified. A delivery failure leaves the dose unmarked so the next sweep
// retries it.
func (s *ReminderService) Sweep(now time.Time) error {
	var due []models.ScheduledDose
	if err := s.db.Where("notified = ? AND scheduled_time <= ?", false, now).
		Find(&due).Error; err != nil {
		return err
	}

	for _, dose := range due {
		if err := s.deliver(&dose); err != nil {
			log.Printf("[reminder] delivery failed for dose %s: %v", dose.ID, err)
			continue
		}
		if err := s.db.Model(&models.ScheduledDose{}).
			Where("id = ?", dose.ID).
			Update("notified", true).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *ReminderService) deliver(dose *models.ScheduledDose) error {
	if s.notifier == nil {
		// No delivery channel configured; mark-only mode.
		return nil
	}

	var user models.User
	if err := s.db.Where("email = ?", dose.UserEmail).First(&user).Error; err != nil {
		return err
	}
	if user.PushoverKey == "" {
		// User never opted in to push delivery.
		return nil
	}

	message := fmt.Sprintf("Time to take your %s (scheduled for %s).",
		titleCase(dose.MedicationName), dose.ScheduledTime.Format("15:04"))
	return s.notifier.Notify(user.PushoverKey, "Medication reminder", message)
}
