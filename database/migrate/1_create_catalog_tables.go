package migrate

import (
	"fmt"

	"github.com/go-pg/migrations"
)

const patientTable = `
CREATE TABLE patient (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,

patient_id text NOT NULL UNIQUE,
patient_name text,
patient_birth_date text,
patient_sex text,
specific_character_set text,
path text,

PRIMARY KEY (id)
)`

const studyTable = `
CREATE TABLE study (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
patient_key int NOT NULL REFERENCES patient (id),

study_instance_uid text NOT NULL UNIQUE,
study_id text,
study_date text,
study_time text,
study_description text,
accession_number text,
referring_physician_name text,
modalities_in_study text,
number_of_study_related_series int,
number_of_study_related_instances int,
station_name text,
institutional_department_name text,
patient_age text,
patient_weight text,
institution_name text,
frames_in_study int,
study_comments text,
study_status int NOT NULL DEFAULT 0,
study_status_token text,
path text,

PRIMARY KEY (id)
)`

const seriesTable = `
CREATE TABLE series (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
study_key int NOT NULL REFERENCES study (id),

series_instance_uid text NOT NULL UNIQUE,
series_number int,
series_date text,
series_time text,
series_description text,
modality text,
patient_position text,
contrast_bolus_agent text,
manufacturer text,
manufacturer_model_name text,
body_part_examined text,
protocol_name text,
number_of_series_related_instances int,
frame_of_reference_uid text,
localizer_instance_uid text,
user_comments text,
series_priority int NOT NULL DEFAULT 0,
series_rate int NOT NULL DEFAULT 0,
review_date text,
review_time text,
insertion_date text,
specific_character_set text,
frames_in_series int,
study_instance_uid text,
path text,

PRIMARY KEY (id)
)`

const imageTable = `
CREATE TABLE image (
id serial NOT NULL,
created_at timestamp with time zone NOT NULL DEFAULT current_timestamp,
series_key int NOT NULL REFERENCES series (id),

sop_instance_uid text NOT NULL UNIQUE,
sop_class_uid text,
image_type text,
instance_number int,
content_date text,
content_time text,
acquisition_date text,
acquisition_time text,
acquisition_number int,
number_of_frames int,
samples_per_pixel int,
photometric_interpretation text,
bits_allocated int,
"rows" int,
"columns" int,
path text NOT NULL,
patient_id text,

PRIMARY KEY (id)
)`

func init() {
	up := []string{
		patientTable,
		studyTable,
		seriesTable,
		imageTable,
		`CREATE INDEX study_patient_key_idx ON study (patient_key)`,
		`CREATE INDEX study_accession_number_idx ON study (accession_number)`,
		`CREATE INDEX series_study_key_idx ON series (study_key)`,
		`CREATE INDEX image_series_key_idx ON image (series_key)`,
	}

	down := []string{
		`DROP TABLE image`,
		`DROP TABLE series`,
		`DROP TABLE study`,
		`DROP TABLE patient`,
	}

	migrations.Register(func(db migrations.DB) error {
		fmt.Println("create catalog tables")
		for _, q := range up {
			_, err := db.Exec(q)
			if err != nil {
				return err
			}
		}
		return nil
	}, func(db migrations.DB) error {
		fmt.Println("drop catalog tables")
		for _, q := range down {
			_, err := db.Exec(q)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
