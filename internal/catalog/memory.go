package catalog

import (
	"context"
	"slices"
	"sync"
)

// MemoryDirectory keeps the catalog in process memory. Insertion order is
// preserved for the list operations.
type MemoryDirectory struct {
	mu            sync.RWMutex
	patients      []Patient
	professionals []Professional
	specialties   []Specialty
}

func NewMemoryDirectory(data Data) *MemoryDirectory {
	d := &MemoryDirectory{}
	for _, p := range data.Patients {
		d.PutPatient(p)
	}
	for _, p := range data.Professionals {
		d.PutProfessional(p)
	}
	for _, s := range data.Specialties {
		d.PutSpecialty(s)
	}
	return d
}

// PutPatient inserts or replaces a patient.
func (d *MemoryDirectory) PutPatient(p Patient) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.IndexFunc(d.patients, func(x Patient) bool { return x.ID == p.ID }); i >= 0 {
		d.patients[i] = p
		return
	}
	d.patients = append(d.patients, p)
}

// PutProfessional inserts or replaces a professional.
func (d *MemoryDirectory) PutProfessional(p Professional) {
	p = cloneProfessional(p)
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.IndexFunc(d.professionals, func(x Professional) bool { return x.ID == p.ID }); i >= 0 {
		d.professionals[i] = p
		return
	}
	d.professionals = append(d.professionals, p)
}

// PutSpecialty inserts or replaces a specialty.
func (d *MemoryDirectory) PutSpecialty(s Specialty) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.IndexFunc(d.specialties, func(x Specialty) bool { return x.ID == s.ID }); i >= 0 {
		d.specialties[i] = s
		return
	}
	d.specialties = append(d.specialties, s)
}

func (d *MemoryDirectory) GetPatient(_ context.Context, id string) (*Patient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.patients {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (d *MemoryDirectory) GetProfessional(_ context.Context, id string) (*Professional, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, p := range d.professionals {
		if p.ID == id {
			c := cloneProfessional(p)
			return &c, nil
		}
	}
	return nil, ErrProfessionalNotFound
}

func (d *MemoryDirectory) GetSpecialty(_ context.Context, id string) (*Specialty, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.specialties {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, ErrSpecialtyNotFound
}

func (d *MemoryDirectory) ListPatients(context.Context) ([]Patient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.patients), nil
}

func (d *MemoryDirectory) ListProfessionals(context.Context) ([]Professional, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Professional, len(d.professionals))
	for i, p := range d.professionals {
		out[i] = cloneProfessional(p)
	}
	return out, nil
}

func (d *MemoryDirectory) ListSpecialties(context.Context) ([]Specialty, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.specialties), nil
}

func cloneProfessional(p Professional) Professional {
	p.SpecialtyIDs = slices.Clone(p.SpecialtyIDs)
	days := make([]AvailabilityDay, len(p.Availability))
	for i, day := range p.Availability {
		days[i] = AvailabilityDay{Date: day.Date, Slots: slices.Clone(day.Slots)}
	}
	p.Availability = days
	return p
}
