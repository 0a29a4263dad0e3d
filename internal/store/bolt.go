// Package store provides a BoltDB-backed persistence layer for customers,
// tickets and payments.
//
// BoltDB is an embedded key/value store; every write runs inside a
// serializable transaction. That property is what makes RegisterPayment safe:
// the payment insert and the balance decrement commit together or not at all.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/account-assistant/internal/model"
)

const (
	customersBucket = "customers"
	ticketsBucket   = "tickets"
	paymentsBucket  = "payments"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a BoltDB database and exposes the operations the domain layer
// needs: get-by-id and create for the three record types, plus the combined
// payment registration.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures all
// buckets exist.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{customersBucket, ticketsBucket, paymentsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is readable.
func (s *Store) Ping() error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(customersBucket)) == nil {
			return fmt.Errorf("customers bucket missing")
		}
		return nil
	})
}

// CreateCustomer persists a new customer, assigning its ID and timestamp.
func (s *Store) CreateCustomer(c *model.Customer) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(customersBucket))

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.ID = int64(seq)
		c.CreatedAt = time.Now().UTC()

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return b.Put(itob(c.ID), data)
	})
}

// GetCustomer retrieves a customer by ID. Returns ErrNotFound if absent.
func (s *Store) GetCustomer(id int64) (*model.Customer, error) {
	var c model.Customer
	err := s.db.View(func(tx *bolt.Tx) error {
		return getRecord(tx, customersBucket, id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns all customers in ID order.
func (s *Store) ListCustomers() ([]model.Customer, error) {
	items := []model.Customer{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(customersBucket))
		return b.ForEach(func(k, v []byte) error {
			var c model.Customer
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			items = append(items, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CreateTicket persists a new ticket. The referenced customer must exist in
// the same transaction, so a ticket can never point at a missing customer.
func (s *Store) CreateTicket(t *model.Ticket) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var c model.Customer
		if err := getRecord(tx, customersBucket, t.CustomerID, &c); err != nil {
			return err
		}

		b := tx.Bucket([]byte(ticketsBucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		t.ID = int64(seq)
		t.Status = model.TicketStatusOpen
		t.CreatedAt = time.Now().UTC()

		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put(itob(t.ID), data)
	})
}

// GetTicket retrieves a ticket by ID.
func (s *Store) GetTicket(id int64) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.View(func(tx *bolt.Tx) error {
		return getRecord(tx, ticketsBucket, id, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(id int64) (*model.Payment, error) {
	var p model.Payment
	err := s.db.View(func(tx *bolt.Tx) error {
		return getRecord(tx, paymentsBucket, id, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPayments returns all payments for a customer in ID order.
func (s *Store) ListPayments(customerID int64) ([]model.Payment, error) {
	items := []model.Payment{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(paymentsBucket))
		return b.ForEach(func(k, v []byte) error {
			var p model.Payment
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			if p.CustomerID == customerID {
				items = append(items, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// RegisterPayment inserts a payment record and decrements the customer's
// balance by the exact amount, inside a single transaction. If either write
// fails the whole transaction rolls back, so a payment is never observed
// without its balance change, or vice versa.
func (s *Store) RegisterPayment(customerID int64, amount decimal.Decimal) (*model.Payment, decimal.Decimal, error) {
	var (
		payment    model.Payment
		newBalance decimal.Decimal
	)

	err := s.db.Update(func(tx *bolt.Tx) error {
		cb := tx.Bucket([]byte(customersBucket))

		var c model.Customer
		if err := getRecord(tx, customersBucket, customerID, &c); err != nil {
			return err
		}

		pb := tx.Bucket([]byte(paymentsBucket))
		seq, err := pb.NextSequence()
		if err != nil {
			return err
		}

		payment = model.Payment{
			ID:         int64(seq),
			CustomerID: customerID,
			Amount:     amount,
			CreatedAt:  time.Now().UTC(),
		}
		data, err := json.Marshal(&payment)
		if err != nil {
			return err
		}
		if err := pb.Put(itob(payment.ID), data); err != nil {
			return err
		}

		c.Balance = c.Balance.Sub(amount)
		newBalance = c.Balance
		data, err = json.Marshal(&c)
		if err != nil {
			return err
		}
		return cb.Put(itob(c.ID), data)
	})
	if err != nil {
		return nil, decimal.Decimal{}, err
	}

	return &payment, newBalance, nil
}

func getRecord(tx *bolt.Tx, bucket string, id int64, out any) error {
	b := tx.Bucket([]byte(bucket))
	v := b.Get(itob(id))
	if v == nil {
		return ErrNotFound
	}
	return json.Unmarshal(v, out)
}

// itob encodes an ID as a big-endian key so bucket iteration stays in
// insertion order.
func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
