package catalog

import (
	"context"
	"errors"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrSpecialtyNotFound    = errors.New("specialty not found")
)

// Directory is the read-only lookup over patients, professionals and
// specialties. Lookups that miss return the package's not-found errors.
type Directory interface {
	GetPatient(ctx context.Context, id string) (*Patient, error)
	GetProfessional(ctx context.Context, id string) (*Professional, error)
	GetSpecialty(ctx context.Context, id string) (*Specialty, error)

	ListPatients(ctx context.Context) ([]Patient, error)
	ListProfessionals(ctx context.Context) ([]Professional, error)
	ListSpecialties(ctx context.Context) ([]Specialty, error)
}

// ListSpecialtiesFor returns the specialties offered by a professional, in
// catalog order. An empty professionalID yields the whole catalog, which is
// what a picker shows before any professional is chosen.
func ListSpecialtiesFor(ctx context.Context, dir Directory, professionalID string) ([]Specialty, error) {
	all, err := dir.ListSpecialties(ctx)
	if err != nil {
		return nil, err
	}
	if professionalID == "" {
		return all, nil
	}

	prof, err := dir.GetProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	out := make([]Specialty, 0, len(prof.SpecialtyIDs))
	for _, s := range all {
		if prof.Offers(s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}
