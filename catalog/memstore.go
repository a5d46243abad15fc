package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dicom-archive/models"
)

// MemStore is an in-memory Catalog. It enforces the same natural-key
// uniqueness as the SQL schema and is safe for concurrent use.
type MemStore struct {
	mu sync.RWMutex

	seq int

	patients   map[int]*models.Patient
	patientIDs map[string]int
	studies    map[int]*models.Study
	studyUIDs  map[string]int
	series     map[int]*models.Series
	seriesUIDs map[string]int
	images     map[int]*models.Image
	imageUIDs  map[string]int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		patients:   map[int]*models.Patient{},
		patientIDs: map[string]int{},
		studies:    map[int]*models.Study{},
		studyUIDs:  map[string]int{},
		series:     map[int]*models.Series{},
		seriesUIDs: map[string]int{},
		images:     map[int]*models.Image{},
		imageUIDs:  map[string]int{},
	}
}

func (m *MemStore) nextID() int {
	m.seq++
	return m.seq
}

func (m *MemStore) FindPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.patientIDs[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	p := *m.patients[id]
	return &p, nil
}

func (m *MemStore) GetPatient(ctx context.Context, key int) (*models.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) CreatePatient(ctx context.Context, p *models.Patient) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patientIDs[p.PatientID]; ok {
		return fmt.Errorf("%w: patient %s", ErrConflict, p.PatientID)
	}
	p.ID = m.nextID()
	p.CreatedAt = time.Now()
	cp := *p
	m.patients[p.ID] = &cp
	m.patientIDs[p.PatientID] = p.ID
	return nil
}

func (m *MemStore) FindStudy(ctx context.Context, studyInstanceUID string) (*models.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.studyUIDs[studyInstanceUID]
	if !ok {
		return nil, ErrNotFound
	}
	s := *m.studies[id]
	return &s, nil
}

func (m *MemStore) CreateStudy(ctx context.Context, s *models.Study) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[s.PatientKey]; !ok {
		return fmt.Errorf("%w: study references unknown patient %d", ErrRecordStore, s.PatientKey)
	}
	if _, ok := m.studyUIDs[s.StudyInstanceUID]; ok {
		return fmt.Errorf("%w: study %s", ErrConflict, s.StudyInstanceUID)
	}
	s.ID = m.nextID()
	s.CreatedAt = time.Now()
	cp := *s
	m.studies[s.ID] = &cp
	m.studyUIDs[s.StudyInstanceUID] = s.ID
	return nil
}

func (m *MemStore) FindSeries(ctx context.Context, seriesInstanceUID string) (*models.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.seriesUIDs[seriesInstanceUID]
	if !ok {
		return nil, ErrNotFound
	}
	s := *m.series[id]
	return &s, nil
}

func (m *MemStore) CreateSeries(ctx context.Context, s *models.Series) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.studies[s.StudyKey]; !ok {
		return fmt.Errorf("%w: series references unknown study %d", ErrRecordStore, s.StudyKey)
	}
	if _, ok := m.seriesUIDs[s.SeriesInstanceUID]; ok {
		return fmt.Errorf("%w: series %s", ErrConflict, s.SeriesInstanceUID)
	}
	s.ID = m.nextID()
	s.CreatedAt = time.Now()
	cp := *s
	m.series[s.ID] = &cp
	m.seriesUIDs[s.SeriesInstanceUID] = s.ID
	return nil
}

func (m *MemStore) FindImage(ctx context.Context, sopInstanceUID string) (*models.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.imageUIDs[sopInstanceUID]
	if !ok {
		return nil, ErrNotFound
	}
	img := *m.images[id]
	return &img, nil
}

func (m *MemStore) CreateImage(ctx context.Context, img *models.Image) error {
	if err := img.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrRecordStore, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.series[img.SeriesKey]; !ok {
		return fmt.Errorf("%w: image references unknown series %d", ErrRecordStore, img.SeriesKey)
	}
	if _, ok := m.imageUIDs[img.SOPInstanceUID]; ok {
		return fmt.Errorf("%w: image %s", ErrConflict, img.SOPInstanceUID)
	}
	img.ID = m.nextID()
	img.CreatedAt = time.Now()
	cp := *img
	m.images[img.ID] = &cp
	m.imageUIDs[img.SOPInstanceUID] = img.ID
	return nil
}

func (m *MemStore) SearchStudies(ctx context.Context, f StudyFilter) ([]*StudyRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []*StudyRow
	for _, s := range m.studies {
		p := m.patients[s.PatientKey]
		if f.StudyInstanceUID != "" && s.StudyInstanceUID != f.StudyInstanceUID {
			continue
		}
		if !containsFold(p.PatientID, f.PatientID) ||
			!containsFold(p.PatientName, f.PatientName) ||
			!containsFold(s.AccessionNumber, f.AccessionNumber) {
			continue
		}
		if f.StudyDate != "" && s.StudyDate != f.StudyDate {
			continue
		}
		rows = append(rows, &StudyRow{
			Study:       *s,
			PatientID:   p.PatientID,
			PatientName: p.PatientName,
			PatientSex:  p.PatientSex,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StudyDate != rows[j].StudyDate {
			return rows[i].StudyDate > rows[j].StudyDate
		}
		if rows[i].PatientName != rows[j].PatientName {
			return rows[i].PatientName < rows[j].PatientName
		}
		return rows[i].ID < rows[j].ID
	})

	if f.Offset > 0 {
		if f.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[f.Offset:]
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *MemStore) ListSeries(ctx context.Context, studyKey int) ([]*models.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Series
	for _, s := range m.series {
		if s.StudyKey == studyKey {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeriesNumber != out[j].SeriesNumber {
			return out[i].SeriesNumber < out[j].SeriesNumber
		}
		return out[i].SeriesInstanceUID < out[j].SeriesInstanceUID
	})
	return out, nil
}

func (m *MemStore) ListImages(ctx context.Context, seriesKey int) ([]*models.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Image
	for _, img := range m.images {
		if img.SeriesKey == seriesKey {
			cp := *img
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InstanceNumber != out[j].InstanceNumber {
			return out[i].InstanceNumber < out[j].InstanceNumber
		}
		return out[i].SOPInstanceUID < out[j].SOPInstanceUID
	})
	return out, nil
}

func (m *MemStore) FindStudiesForLink(ctx context.Context, patientID, accessionNumber string, limit int) ([]*models.Study, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pid, ok := m.patientIDs[patientID]
	if !ok {
		return nil, nil
	}
	var out []*models.Study
	for _, s := range m.studies {
		if s.PatientKey == pid && s.AccessionNumber == accessionNumber {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) Summary(ctx context.Context) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[string]int{}
	for _, s := range m.series {
		counts[s.Modality]++
	}
	sum := &Summary{
		Patients: len(m.patients),
		Studies:  len(m.studies),
		Series:   len(m.series),
		Images:   len(m.images),
	}
	for modality, n := range counts {
		sum.Modalities = append(sum.Modalities, ModalityCount{Modality: modality, Count: n})
	}
	sort.Slice(sum.Modalities, func(i, j int) bool { return sum.Modalities[i].Modality < sum.Modalities[j].Modality })
	return sum, nil
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
