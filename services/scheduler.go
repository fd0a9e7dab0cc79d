package services

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"tailorbook-backend/models"
	"tailorbook-backend/storage"
)

// Scheduler runs the nightly jobs: cloud auto-backup for opted-in users and
// the due-order reminder sweep.
type Scheduler struct {
	db     *gorm.DB
	ledger *LedgerService
	backup *BackupService
	events *Dispatcher
}

func NewScheduler(db *gorm.DB, ledger *LedgerService, backup *BackupService, events *Dispatcher) *Scheduler {
	return &Scheduler{db: db, ledger: ledger, backup: backup, events: events}
}

// Start registers the cron entries. Default is daily at 21:00; override with
// BACKUP_CRON.
func (s *Scheduler) Start() {
	spec := os.Getenv("BACKUP_CRON")
	if spec == "" {
		spec = "0 21 * * *"
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.RunAutoBackups); err != nil {
		log.Printf("scheduler: invalid BACKUP_CRON %q: %v", spec, err)
	}
	// Due-order sweep every morning at 9 AM.
	if _, err := c.AddFunc("0 9 * * *", s.SweepDueOrders); err != nil {
		log.Printf("scheduler: due sweep registration failed: %v", err)
	}
	c.Start()
	log.Println("Scheduler started")
}

// RunAutoBackups uploads a snapshot for every approved user who opted in.
// The upload only touches remote state, so a failure leaves local data alone.
func (s *Scheduler) RunAutoBackups() {
	if s.backup == nil || s.backup.remote == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var users []models.User
	if err := s.db.Find(&users, "auto_backup = ? AND is_approved = ? AND is_active = ?", true, true, true).Error; err != nil {
		log.Printf("scheduler: failed to list auto-backup users: %v", err)
		return
	}
	for _, user := range users {
		if err := s.backup.UploadToRemote(ctx, user.ID.String()); err != nil {
			log.Printf("scheduler: auto backup for %s failed: %v", user.ID, err)
			continue
		}
		log.Printf("scheduler: auto backup for %s uploaded", user.ID)
	}
}

// SweepDueOrders emits a due event for every unfinished order whose due date
// is today or earlier, in both partitions.
func (s *Scheduler) SweepDueOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	today := time.Now().Format("2006-01-02")
	for _, p := range []storage.Partition{storage.Professional, storage.Simple} {
		orders, err := s.ledger.Orders(ctx, p)
		if err != nil {
			log.Printf("scheduler: due sweep read failed for %s: %v", p, err)
			continue
		}
		for _, o := range orders {
			if o.DueDate == "" || o.DueDate > today || o.Status == models.StatusCompleted {
				continue
			}
			customer, err := s.ledger.Customer(ctx, p, o.CustomerID)
			if err != nil {
				continue
			}
			s.events.Fire(EventOrderDue, OrderReadyEvent{
				CustomerID:       customer.ID,
				CustomerName:     customer.Name,
				CustomerPhone:    customer.Phone,
				OrderID:          o.ID,
				OrderDescription: o.Description,
				ShopName:         s.ledger.shopName(ctx),
			})
		}
	}
}
