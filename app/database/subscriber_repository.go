package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ SubscriberRepository = (*subscriberRepository)(nil)

type subscriberRepository struct {
	db *DB
}

func NewSubscriberRepository(db *DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

func (r *subscriberRepository) GetSubscriber(email string) (*Subscriber, error) {
	var sub Subscriber
	var createdAt, updatedAt int64

	err := r.db.QueryRow(`
		SELECT email, is_verified, subscribed, unsubscribe_token, created_at, updated_at
		FROM subscribers
		WHERE email = ?
	`, email).Scan(&sub.Email, &sub.IsVerified, &sub.Subscribed, &sub.UnsubscribeToken, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}

	sub.CreatedAt = time.Unix(createdAt, 0).UTC()
	sub.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &sub, nil
}

func (r *subscriberRepository) ExistsByEmail(email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM subscribers WHERE email = ?)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subscriber existence: %w", err)
	}
	return exists, nil
}

func (r *subscriberRepository) ListSubscribers() ([]Subscriber, error) {
	rows, err := r.db.Query(`
		SELECT email, is_verified, subscribed, unsubscribe_token, created_at, updated_at
		FROM subscribers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		var createdAt, updatedAt int64
		err := rows.Scan(&sub.Email, &sub.IsVerified, &sub.Subscribed, &sub.UnsubscribeToken, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row: %w", err)
		}
		sub.CreatedAt = time.Unix(createdAt, 0).UTC()
		sub.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return subs, nil
}

func (r *subscriberRepository) GetSubscriberCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subscribers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscriber count: %w", err)
	}
	return count, nil
}

func (r *subscriberRepository) GetEligibleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM subscribers WHERE is_verified = 1 AND subscribed = 1
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get eligible subscriber count: %w", err)
	}
	return count, nil
}

func (r *subscriberRepository) InsertSubscriber(sub Subscriber) error {
	now := time.Now().UTC()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.Exec(`
		INSERT INTO subscribers (email, is_verified, subscribed, unsubscribe_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sub.Email, sub.IsVerified, sub.Subscribed, sub.UnsubscribeToken, createdAt.Unix(), now.Unix())

	if err != nil {
		return fmt.Errorf("failed to insert subscriber: %w", err)
	}

	return nil
}

// MarkVerified activates the subscription: verification and subscription
// flags are set in one statement so no partial transition is observable.
func (r *subscriberRepository) MarkVerified(email string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscribers
		SET is_verified = 1, subscribed = 1, updated_at = ?
		WHERE email = ?
	`, time.Now().UTC().Unix(), email)

	if err != nil {
		return false, fmt.Errorf("failed to mark subscriber verified: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *subscriberRepository) SetSubscribed(email string, subscribed bool) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscribers
		SET subscribed = ?, updated_at = ?
		WHERE email = ?
	`, subscribed, time.Now().UTC().Unix(), email)

	if err != nil {
		return false, fmt.Errorf("failed to update subscription status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}
