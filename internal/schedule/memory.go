package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local
// experiments. A single mutex plays the role of the database transaction,
// and the same uniqueness rules the schema enforces (one slot per pair,
// one active appointment per pair) hold here.
type MemoryRepository struct {
	mu    sync.Mutex
	slots map[string]Slot
	appts map[uuid.UUID]*Appointment
	users map[string]uuid.UUID // contact email -> user id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		slots: make(map[string]Slot),
		appts: make(map[uuid.UUID]*Appointment),
		users: make(map[string]uuid.UUID),
	}
}

func pairKey(date, t string) string { return date + "|" + t }

func (r *MemoryRepository) CreateSlot(ctx context.Context, date, t string) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(date, t)
	if _, ok := r.slots[key]; ok {
		return nil, ErrSlotExists
	}

	s := Slot{ID: uuid.New(), Date: date, Time: t, CreatedAt: time.Now()}
	r.slots[key] = s
	return &s, nil
}

func (r *MemoryRepository) DeleteSlot(ctx context.Context, date, t string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(date, t)
	if _, ok := r.slots[key]; !ok {
		return ErrSlotNotFound
	}
	delete(r.slots, key)
	return nil
}

func (r *MemoryRepository) SlotTimes(ctx context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotTimesLocked(date), nil
}

func (r *MemoryRepository) slotTimesLocked(date string) []string {
	times := []string{}
	for _, s := range r.slots {
		if s.Date == date {
			times = append(times, s.Time)
		}
	}
	sort.Strings(times)
	return times
}

func (r *MemoryRepository) SlotTimesInRange(ctx context.Context, from, to string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]string)
	for _, s := range r.slots {
		if s.Date >= from && s.Date <= to {
			out[s.Date] = append(out[s.Date], s.Time)
		}
	}
	for _, times := range out {
		sort.Strings(times)
	}
	return out, nil
}

func (r *MemoryRepository) ActiveAppointmentTimes(ctx context.Context, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeTimesLocked(date), nil
}

func (r *MemoryRepository) activeTimesLocked(date string) []string {
	seen := make(map[string]struct{})
	times := []string{}
	for _, a := range r.appts {
		if a.Date != date || a.Status == StatusCancelled {
			continue
		}
		if _, ok := seen[a.Time]; ok {
			continue
		}
		seen[a.Time] = struct{}{}
		times = append(times, a.Time)
	}
	sort.Strings(times)
	return times
}

func (r *MemoryRepository) ActiveAppointmentTimesInRange(ctx context.Context, from, to string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	out := make(map[string][]string)
	for _, a := range r.appts {
		if a.Date < from || a.Date > to || a.Status == StatusCancelled {
			continue
		}
		key := pairKey(a.Date, a.Time)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out[a.Date] = append(out[a.Date], a.Time)
	}
	for _, times := range out {
		sort.Strings(times)
	}
	return out, nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) ListAppointments(ctx context.Context, date string, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Appointment
	for _, a := range r.appts {
		if date != "" && a.Date != date {
			continue
		}
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date != all[j].Date {
			return all[i].Date > all[j].Date
		}
		return all[i].Time > all[j].Time
	})

	if offset >= len(all) {
		return []Appointment{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryRepository) CreateAppointment(ctx context.Context, userID uuid.UUID, p BookingParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(userID, p)
}

func (r *MemoryRepository) CreateManualAppointment(ctx context.Context, contact ContactInfo, p BookingParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Slot checks come first so a rejected booking creates no user.
	if err := r.checkSlotLocked(p.Date, p.Time); err != nil {
		return nil, err
	}

	userID, ok := r.users[contact.Email]
	if !ok {
		userID = uuid.New()
		r.users[contact.Email] = userID
	}

	return r.createLocked(userID, p)
}

// UserIDByEmail reports the placeholder user created for a contact email,
// for assertions on the manual-entry path.
func (r *MemoryRepository) UserIDByEmail(email string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.users[email]
	return id, ok
}

func (r *MemoryRepository) checkSlotLocked(date, t string) error {
	if _, ok := r.slots[pairKey(date, t)]; !ok {
		return ErrSlotNotFound
	}
	for _, a := range r.appts {
		if a.Date == date && a.Time == t && a.Status != StatusCancelled {
			return ErrSlotTaken
		}
	}
	return nil
}

func (r *MemoryRepository) createLocked(userID uuid.UUID, p BookingParams) (*Appointment, error) {
	if err := r.checkSlotLocked(p.Date, p.Time); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &Appointment{
		ID:            uuid.New(),
		UserID:        userID,
		Date:          p.Date,
		Time:          p.Time,
		Notes:         p.Notes,
		Status:        p.Status,
		TotalPrice:    p.TotalPrice,
		TotalDuration: p.TotalDuration,
		Services:      append([]BookedService(nil), p.Services...),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.appts[a.ID] = a

	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()

	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appts, id)
	return nil
}
