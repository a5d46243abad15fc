package catalog

import (
	"context"
	"fmt"

	"dicom-archive/models"
)

// StudyDetail is a study with its patient, series and images.
type StudyDetail struct {
	Study   *models.Study   `json:"study"`
	Patient *models.Patient `json:"patient"`
	Series  []*SeriesDetail `json:"series"`
}

type SeriesDetail struct {
	*models.Series
	Images []*models.Image `json:"images"`
}

// Images flattens the study's images, by series then instance order.
func (d *StudyDetail) Images() []*models.Image {
	var out []*models.Image
	for _, s := range d.Series {
		out = append(out, s.Images...)
	}
	return out
}

// LoadStudy assembles the detail view of one study.
func LoadStudy(ctx context.Context, r Reader, studyInstanceUID string) (*StudyDetail, error) {
	study, err := r.FindStudy(ctx, studyInstanceUID)
	if err != nil {
		return nil, err
	}
	patient, err := r.GetPatient(ctx, study.PatientKey)
	if err != nil {
		return nil, fmt.Errorf("patient of study %s: %w", studyInstanceUID, err)
	}
	series, err := r.ListSeries(ctx, study.ID)
	if err != nil {
		return nil, err
	}

	detail := &StudyDetail{Study: study, Patient: patient}
	for _, s := range series {
		images, err := r.ListImages(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		detail.Series = append(detail.Series, &SeriesDetail{Series: s, Images: images})
	}
	return detail, nil
}

// LinkRequest is an EMR deep link: a patient, an accession number and
// optionally the image to open first.
type LinkRequest struct {
	PatientID       string
	AccessionNumber string
	SOPInstanceUID  string
}

// Link is the study a LinkRequest designates.
type Link struct {
	StudyInstanceUID string `json:"study_instance_uid"`
	InitialImage     string `json:"initial_image_sop_instance_uid,omitempty"`
	InitialImagePath string `json:"initial_image_path,omitempty"`
}

// ResolveLink finds the single study matching req. It returns ErrNotFound
// when nothing matches and ErrAmbiguous when several studies do. The
// initial image is the requested one when it belongs to the study, else the
// study's first image.
func ResolveLink(ctx context.Context, r Reader, req LinkRequest) (*Link, error) {
	studies, err := r.FindStudiesForLink(ctx, req.PatientID, req.AccessionNumber, 2)
	if err != nil {
		return nil, err
	}
	switch len(studies) {
	case 0:
		return nil, ErrNotFound
	case 1:
	default:
		return nil, fmt.Errorf("%w: patient %s accession %s", ErrAmbiguous, req.PatientID, req.AccessionNumber)
	}

	detail, err := LoadStudy(ctx, r, studies[0].StudyInstanceUID)
	if err != nil {
		return nil, err
	}
	link := &Link{StudyInstanceUID: detail.Study.StudyInstanceUID}
	images := detail.Images()
	for _, img := range images {
		if req.SOPInstanceUID != "" && img.SOPInstanceUID == req.SOPInstanceUID {
			link.InitialImage, link.InitialImagePath = img.SOPInstanceUID, img.Path
			return link, nil
		}
	}
	if len(images) > 0 {
		link.InitialImage, link.InitialImagePath = images[0].SOPInstanceUID, images[0].Path
	}
	return link, nil
}
