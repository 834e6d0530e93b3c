package reminder

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/nhle/taskmaster/internal/model"
)

// Notifier posts desktop notifications. Permission follows the browser
// model: "default" until asked, then "granted" or "denied".
type Notifier interface {
	Permission() string
	RequestPermission(done func(permission string))
	Notify(title, body string) error
}

// DesktopNotifier shows notifications through the desktop's notification
// service. Desktops have no permission prompt, so a request grants
// permission, and a notification the desktop refuses revokes it.
type DesktopNotifier struct {
	mu         sync.Mutex
	permission string
	show       func(title, body string) error
}

// NewDesktopNotifier starts from the configured permission.
func NewDesktopNotifier(permission string) *DesktopNotifier {
	if permission == "" {
		permission = model.NotifyDefault
	}
	return &DesktopNotifier{
		permission: permission,
		show: func(title, body string) error {
			return beeep.Notify(title, body, "")
		},
	}
}

// Permission implements Notifier.
func (n *DesktopNotifier) Permission() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission implements Notifier.
func (n *DesktopNotifier) RequestPermission(done func(string)) {
	n.mu.Lock()
	if n.permission == model.NotifyDefault {
		n.permission = model.NotifyGranted
	}
	p := n.permission
	n.mu.Unlock()
	done(p)
}

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(title, body string) error {
	if err := n.show(title, body); err != nil {
		n.mu.Lock()
		n.permission = model.NotifyDenied
		n.mu.Unlock()
		log.Printf("reminder: desktop notifications unavailable, disabling: %v", err)
		return fmt.Errorf("showing notification: %w", err)
	}
	return nil
}
