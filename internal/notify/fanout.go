package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fasthelp/fasthelp/internal/database"
	"github.com/fasthelp/fasthelp/pkg/models"
)

var donationApprovedTmpl = template.Must(template.New("donationApproved").Parse(
	`A new donation is available near you!

{{.Title}}
{{if .Address}}Pickup at: {{.Address}}
{{end}}Category: {{.Category}}

Claim it before someone else does: {{.BaseURL}}/

You are receiving this because you subscribed to Fast Help alerts.
Unsubscribe: {{.BaseURL}}/unsubscribe?email={{.Email}}
`))

// Fanout broadcasts donation availability to subscribers and sends the
// single transactional emails around account and pickup events. Every
// send is best effort: failures are logged, never propagated to the
// caller's request.
type Fanout struct {
	db         *database.DB
	sender     Sender
	batchSize  int
	batchDelay time.Duration
	baseURL    string
}

// NewFanout creates a Fanout. batchSize bounds concurrent sends per
// batch and batchDelay is the pause between batches.
func NewFanout(db *database.DB, sender Sender, batchSize int, batchDelay time.Duration, baseURL string) *Fanout {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Fanout{
		db:         db,
		sender:     sender,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		baseURL:    baseURL,
	}
}

// DonationApproved notifies every active subscriber that a donation
// became available. Recipients are processed in batches with a delay
// between them so the mail backend is not flooded. Returns the number
// of successful sends.
func (f *Fanout) DonationApproved(ctx context.Context, d *models.Donation) int {
	emails, err := f.db.ActiveSubscriberEmails(ctx)
	if err != nil {
		log.Printf("fanout: list subscribers: %v", err)
		return 0
	}
	if len(emails) == 0 {
		return 0
	}

	var sent int
	var mu sync.Mutex

	for start := 0; start < len(emails); start += f.batchSize {
		if start > 0 && f.batchDelay > 0 {
			select {
			case <-time.After(f.batchDelay):
			case <-ctx.Done():
				log.Printf("fanout: canceled after %d sends: %v", sent, ctx.Err())
				return sent
			}
		}

		end := start + f.batchSize
		if end > len(emails) {
			end = len(emails)
		}

		var wg sync.WaitGroup
		for _, email := range emails[start:end] {
			wg.Add(1)
			go func(email string) {
				defer wg.Done()
				body, err := f.donationApprovedBody(d, email)
				if err != nil {
					log.Printf("fanout: render body for %s: %v", email, err)
					return
				}
				err = f.sender.Send(ctx, Message{
					To:      email,
					Subject: "New donation available: " + d.Title,
					Body:    body,
				})
				if err != nil {
					log.Printf("fanout: send to %s: %v", email, err)
					return
				}
				mu.Lock()
				sent++
				mu.Unlock()
			}(email)
		}
		wg.Wait()
	}

	log.Printf("fanout: donation %s announced to %d/%d subscribers", d.ID, sent, len(emails))
	return sent
}

func (f *Fanout) donationApprovedBody(d *models.Donation, email string) (string, error) {
	var buf strings.Builder
	err := donationApprovedTmpl.Execute(&buf, struct {
		Title    string
		Address  string
		Category models.Category
		BaseURL  string
		Email    string
	}{d.Title, d.Address, d.Category, f.baseURL, email})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Welcome greets a freshly registered user and explains the approval
// wait.
func (f *Fanout) Welcome(ctx context.Context, u *models.User) {
	f.sendOne(ctx, u.Email, "Welcome to Fast Help",
		fmt.Sprintf("Hi %s,\n\nThanks for signing up for Fast Help. An administrator will review your account shortly; you can log in once it is approved.\n", u.FullName))
}

// AccountApproved tells a user their account was approved.
func (f *Fanout) AccountApproved(ctx context.Context, u *models.User) {
	f.sendOne(ctx, u.Email, "Your Fast Help account is approved",
		fmt.Sprintf("Hi %s,\n\nYour account has been approved. Log in at %s/ to get started.\n", u.FullName, f.baseURL))
}

// PickupConfirmed sends the picker their delivery tracking link.
func (f *Fanout) PickupConfirmed(ctx context.Context, p *models.Pickup, d *models.Donation) {
	if p.PickerEmail == "" {
		return
	}
	f.sendOne(ctx, p.PickerEmail, "Pickup confirmed: "+d.Title,
		fmt.Sprintf("Hi %s,\n\nYou have claimed \"%s\". Once it is delivered, confirm at %s/delivery/%s so we can close the loop.\n", p.PickerName, d.Title, f.baseURL, p.ID))
}

// DeliveryThanks thanks the picker after a confirmed delivery.
func (f *Fanout) DeliveryThanks(ctx context.Context, p *models.Pickup) {
	if p.PickerEmail == "" {
		return
	}
	f.sendOne(ctx, p.PickerEmail, "Thank you for delivering",
		fmt.Sprintf("Hi %s,\n\nThanks for confirming the delivery. You made a difference today.\n", p.PickerName))
}

func (f *Fanout) sendOne(ctx context.Context, to, subject, body string) {
	if err := f.sender.Send(ctx, Message{To: to, Subject: subject, Body: body}); err != nil {
		log.Printf("notify: send %q to %s: %v", subject, to, err)
	}
}
