package infrastructure

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/hitbot-agency/suno-downloader/internal/domain"
)

// NotificationService sends desktop notifications for job lifecycle events.
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	switch n.config.Method {
	case "osascript":
		return n.sendOSAScript(title, message)
	case "notify-send":
		return n.sendNotifySend(title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

// sendOSAScript sends notification using macOS osascript
func (n *NotificationService) sendOSAScript(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "osascript"),
			zap.Error(err))
		return err
	}
	return nil
}

// sendNotifySend sends notification using Linux notify-send
func (n *NotificationService) sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", title, message)

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", "notify-send"),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyJobStarted sends notification when a job starts running
func (n *NotificationService) NotifyJobStarted(jobID string) {
	n.Send("Download Started", fmt.Sprintf("Job %s is running", shortJobID(jobID)))
}

// NotifyJobCompleted sends notification when a job completes
func (n *NotificationService) NotifyJobCompleted(jobID string, downloaded, failed int) {
	n.Send("Download Completed",
		fmt.Sprintf("Job %s: %d songs downloaded, %d failed", shortJobID(jobID), downloaded, failed))
}

// NotifyJobFailed sends notification when a job fails
func (n *NotificationService) NotifyJobFailed(jobID string, err error) {
	n.Send("Download Failed", fmt.Sprintf("Job %s: %v", shortJobID(jobID), err))
}

// NotifyJobCancelled sends notification when a job is cancelled
func (n *NotificationService) NotifyJobCancelled(jobID string, downloaded int) {
	n.Send("Download Cancelled",
		fmt.Sprintf("Job %s cancelled after %d songs", shortJobID(jobID), downloaded))
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
