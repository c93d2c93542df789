package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/garagedesk/garagedesk-api/models"
)

// Notifier delivers one outbox entry. Delivery is always best-effort from
// the workflow's point of view: a failing Send is recorded on the entry
// and never affects the committed state transition.
type Notifier interface {
	Send(entry *models.NotificationOutbox) error
}

var notifierInstance Notifier

// InitNotifier initializes the default notifier
func InitNotifier() Notifier {
	notifierInstance = &LogNotifier{}
	return notifierInstance
}

// GetNotifier returns the initialized notifier instance
func GetNotifier() Notifier {
	if notifierInstance == nil {
		notifierInstance = &LogNotifier{}
	}
	return notifierInstance
}

// SetNotifier sets the notifier instance (primarily for testing)
func SetNotifier(n Notifier) {
	notifierInstance = n
}

// LogNotifier writes notifications to the application log. Stands in for
// the mail gateway in development.
type LogNotifier struct{}

// Send logs the notification
func (n *LogNotifier) Send(entry *models.NotificationOutbox) error {
	log.Printf("Notification [%s] to %s: %s", entry.Type, entry.Recipient, entry.Subject)
	return nil
}

// DispatchOutbox attempts delivery of every pending outbox entry and
// records the outcome per row. Failures are logged and left as "failed"
// for later redelivery.
func DispatchOutbox(db *gorm.DB, notifier Notifier) {
	var pending []models.NotificationOutbox
	if err := db.Where("status = ?", models.OutboxPending).Find(&pending).Error; err != nil {
		log.Printf("Failed to load pending notifications: %v", err)
		return
	}

	for i := range pending {
		entry := &pending[i]
		updates := map[string]interface{}{"attempts": entry.Attempts + 1}
		if err := notifier.Send(entry); err != nil {
			log.Printf("Failed to deliver notification %d: %v", entry.ID, err)
			updates["status"] = models.OutboxFailed
			updates["last_error"] = err.Error()
		} else {
			now := timeNow()
			updates["status"] = models.OutboxSent
			updates["sent_at"] = &now
			updates["last_error"] = ""
		}
		if err := db.Model(entry).Updates(updates).Error; err != nil {
			log.Printf("Failed to update notification %d: %v", entry.ID, err)
		}
	}
}
