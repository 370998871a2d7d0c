package clinic

import (
	"context"
	"fmt"
	"sort"
	"time"

	redisclient "github.com/medsuite/clinic-scheduling/internal/redis"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	plans        map[int64]Plan
	doctors      map[int64]Doctor
	doctorPlans  map[int64][]int64
	patients     map[int64]Patient
	appointments map[int64]Appointment
	nextID       int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:        make(map[int64]Plan),
		doctors:      make(map[int64]Doctor),
		doctorPlans:  make(map[int64][]int64),
		patients:     make(map[int64]Patient),
		appointments: make(map[int64]Appointment),
	}
}

func (r *fakeRepo) genID() int64 {
	r.nextID++
	return r.nextID
}

// Plans

func (r *fakeRepo) GetPlanByID(ctx context.Context, id int64) (*Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (r *fakeRepo) ListPlans(ctx context.Context) ([]Plan, error) {
	out := make([]Plan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) CreatePlan(ctx context.Context, p *Plan) error {
	if _, ok := r.plans[p.ID]; ok {
		return ErrPlanIDTaken
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.plans[p.ID] = *p
	return nil
}

func (r *fakeRepo) UpdatePlan(ctx context.Context, p *Plan) error {
	old, ok := r.plans[p.ID]
	if !ok {
		return ErrPlanNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	r.plans[p.ID] = *p
	return nil
}

func (r *fakeRepo) DeletePlan(ctx context.Context, id int64) error {
	if _, ok := r.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakeRepo) CountPlanDependents(ctx context.Context, planID int64) (int64, int64, error) {
	var doctors, patients int64
	for _, planIDs := range r.doctorPlans {
		for _, id := range planIDs {
			if id == planID {
				doctors++
				break
			}
		}
	}
	for _, p := range r.patients {
		if p.PlanID != nil && *p.PlanID == planID {
			patients++
		}
	}
	return doctors, patients, nil
}

// Doctors

func (r *fakeRepo) hydrateDoctor(d Doctor) Doctor {
	d.Plans = nil
	ids := append([]int64(nil), r.doctorPlans[d.ID]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, planID := range ids {
		if p, ok := r.plans[planID]; ok {
			d.Plans = append(d.Plans, p)
		}
	}
	return d
}

func (r *fakeRepo) GetDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d = r.hydrateDoctor(d)
	return &d, nil
}

func (r *fakeRepo) GetDoctorByTaxID(ctx context.Context, taxID string) (*Doctor, error) {
	for _, d := range r.doctors {
		if d.TaxID == taxID {
			d = r.hydrateDoctor(d)
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *fakeRepo) GetDoctorByLicense(ctx context.Context, licenseNumber string) (*Doctor, error) {
	for _, d := range r.doctors {
		if d.LicenseNumber == licenseNumber {
			d = r.hydrateDoctor(d)
			return &d, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *fakeRepo) ListDoctors(ctx context.Context) ([]Doctor, error) {
	out := make([]Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, r.hydrateDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ListDoctorsByPlan(ctx context.Context, planID int64) ([]Doctor, error) {
	var out []Doctor
	for id, planIDs := range r.doctorPlans {
		for _, pid := range planIDs {
			if pid == planID {
				out = append(out, r.hydrateDoctor(r.doctors[id]))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) CreateDoctor(ctx context.Context, d *Doctor, planIDs []int64) (int64, error) {
	id := r.genID()
	d.ID = id
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	r.doctors[id] = *d
	r.doctorPlans[id] = append([]int64(nil), planIDs...)
	return id, nil
}

func (r *fakeRepo) UpdateDoctor(ctx context.Context, d *Doctor, planIDs []int64) error {
	old, ok := r.doctors[d.ID]
	if !ok {
		return ErrDoctorNotFound
	}
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = time.Now()
	r.doctors[d.ID] = *d
	r.doctorPlans[d.ID] = append([]int64(nil), planIDs...)
	return nil
}

func (r *fakeRepo) DeleteDoctor(ctx context.Context, id int64) error {
	if _, ok := r.doctors[id]; !ok {
		return ErrDoctorNotFound
	}
	delete(r.doctors, id)
	delete(r.doctorPlans, id)
	return nil
}

// Patients

func (r *fakeRepo) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (r *fakeRepo) GetPatientByTaxID(ctx context.Context, taxID string) (*Patient, error) {
	for _, p := range r.patients {
		if p.TaxID == taxID {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *fakeRepo) ListPatients(ctx context.Context) ([]Patient, error) {
	out := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) ListPatientsByPlan(ctx context.Context, planID int64) ([]Patient, error) {
	var out []Patient
	for _, p := range r.patients {
		if p.PlanID != nil && *p.PlanID == planID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) CreatePatient(ctx context.Context, p *Patient) (int64, error) {
	id := r.genID()
	p.ID = id
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.patients[id] = *p
	return id, nil
}

func (r *fakeRepo) UpdatePatient(ctx context.Context, p *Patient) error {
	old, ok := r.patients[p.ID]
	if !ok {
		return ErrPatientNotFound
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	r.patients[p.ID] = *p
	return nil
}

func (r *fakeRepo) DeletePatient(ctx context.Context, id int64) error {
	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

// Appointments

func (r *fakeRepo) GetAppointmentByID(ctx context.Context, id int64) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *fakeRepo) GetAppointmentDetail(ctx context.Context, id int64) (*AppointmentDetail, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return r.detail(a), nil
}

func (r *fakeRepo) detail(a Appointment) *AppointmentDetail {
	d := &AppointmentDetail{Appointment: a}
	if p, ok := r.patients[a.PatientID]; ok {
		d.PatientName = p.Name
		d.PatientTaxID = p.TaxID
		d.PlanID = p.PlanID
		if p.PlanID != nil {
			if plan, ok := r.plans[*p.PlanID]; ok {
				name := plan.Name
				d.PlanName = &name
			}
		}
	}
	if doc, ok := r.doctors[a.DoctorID]; ok {
		d.DoctorName = doc.Name
		d.DoctorLicense = doc.LicenseNumber
	}
	return d
}

func (r *fakeRepo) ListAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	out := make([]AppointmentDetail, 0, len(r.appointments))
	for _, a := range r.appointments {
		out = append(out, *r.detail(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) HasScheduleConflict(ctx context.Context, doctorID int64, at time.Time, excludeID *int64) (bool, error) {
	slot := at.Truncate(time.Minute)
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.Status == StatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.ScheduledAt.Truncate(time.Minute).Equal(slot) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CreateAppointment(ctx context.Context, a *Appointment) (int64, error) {
	id := r.genID()
	a.ID = id
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.appointments[id] = *a
	return id, nil
}

func (r *fakeRepo) UpdateAppointment(ctx context.Context, a *Appointment) error {
	old, ok := r.appointments[a.ID]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.CreatedAt = old.CreatedAt
	a.UpdatedAt = time.Now()
	r.appointments[a.ID] = *a
	return nil
}

func (r *fakeRepo) DeleteAppointment(ctx context.Context, id int64) error {
	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

// fakeLocker runs the guarded section inline. Keys in held simulate a lock
// already owned by a concurrent request.
type fakeLocker struct {
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func lockKey(doctorID int64, slot time.Time) string {
	return fmt.Sprintf("%d:%s", doctorID, slot.UTC().Format("200601021504"))
}

func (l *fakeLocker) WithScheduleLock(ctx context.Context, doctorID int64, slot time.Time, fn func(ctx context.Context) error) error {
	if l.held[lockKey(doctorID, slot)] {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}
