package sqlite

import (
	"context"
	"fmt"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
	"github.com/teskilatapp/credsync/internal/secretbox"
)

// Compile-time interface satisfaction check.
var _ driven.EntityStore = (*EntityRepo)(nil)

// EntityRepo is the SQLite implementation of the EntityStore port. Source
// data is written by the administrative application; this repo only reads
// it, decrypting national ids and phone numbers that arrived encrypted.
type EntityRepo struct {
	db    *DB
	codec *secretbox.Codec
}

// NewEntityRepo creates an EntityRepo backed by the given DB.
func NewEntityRepo(db *DB, codec *secretbox.Codec) *EntityRepo {
	return &EntityRepo{db: db, codec: codec}
}

// ListMembers returns all members with secret attributes decrypted.
func (r *EntityRepo) ListMembers(ctx context.Context) ([]model.Member, error) {
	const query = `SELECT id, national_id, phone, full_name FROM members ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.NationalID, &m.Phone, &m.FullName); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.NationalID = r.codec.DecryptValue(m.NationalID)
		m.Phone = r.codec.DecryptValue(m.Phone)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ListDistrictOfficials returns all district officials.
func (r *EntityRepo) ListDistrictOfficials(ctx context.Context) ([]model.DistrictOfficial, error) {
	const query = `SELECT district_id, district_name, chairman_name, chairman_phone FROM district_officials ORDER BY district_id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list district officials: %w", err)
	}
	defer rows.Close()

	var officials []model.DistrictOfficial
	for rows.Next() {
		var d model.DistrictOfficial
		if err := rows.Scan(&d.DistrictID, &d.DistrictName, &d.ChairmanName, &d.ChairmanPhone); err != nil {
			return nil, fmt.Errorf("scan district official: %w", err)
		}
		d.ChairmanPhone = r.codec.DecryptValue(d.ChairmanPhone)
		officials = append(officials, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate district officials: %w", err)
	}
	return officials, nil
}

// ListTownOfficials returns all town officials.
func (r *EntityRepo) ListTownOfficials(ctx context.Context) ([]model.TownOfficial, error) {
	const query = `SELECT town_id, town_name, chairman_name, chairman_phone FROM town_officials ORDER BY town_id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list town officials: %w", err)
	}
	defer rows.Close()

	var officials []model.TownOfficial
	for rows.Next() {
		var t model.TownOfficial
		if err := rows.Scan(&t.TownID, &t.TownName, &t.ChairmanName, &t.ChairmanPhone); err != nil {
			return nil, fmt.Errorf("scan town official: %w", err)
		}
		t.ChairmanPhone = r.codec.DecryptValue(t.ChairmanPhone)
		officials = append(officials, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate town officials: %w", err)
	}
	return officials, nil
}

// ListObservers returns all observers, chief or not.
func (r *EntityRepo) ListObservers(ctx context.Context) ([]model.Observer, error) {
	const query = `SELECT id, name, national_id, ballot_box_id, ballot_box_number, is_chief FROM observers ORDER BY id`
	return r.queryObservers(ctx, query)
}

// ListChiefObservers returns the eligible set for observer credentials.
func (r *EntityRepo) ListChiefObservers(ctx context.Context) ([]model.Observer, error) {
	const query = `SELECT id, name, national_id, ballot_box_id, ballot_box_number, is_chief FROM observers WHERE is_chief = 1 ORDER BY id`
	return r.queryObservers(ctx, query)
}

func (r *EntityRepo) queryObservers(ctx context.Context, query string) ([]model.Observer, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list observers: %w", err)
	}
	defer rows.Close()

	var observers []model.Observer
	for rows.Next() {
		var o model.Observer
		var isChief int
		if err := rows.Scan(&o.ID, &o.Name, &o.NationalID, &o.BallotBoxID, &o.BallotBoxNumber, &isChief); err != nil {
			return nil, fmt.Errorf("scan observer: %w", err)
		}
		o.IsChief = isChief != 0
		o.NationalID = r.codec.DecryptValue(o.NationalID)
		observers = append(observers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observers: %w", err)
	}
	return observers, nil
}
