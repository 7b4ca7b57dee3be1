package smmdb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/jask/smmdbtui/internal/saves"
)

// CourseDataSize is the size of an encrypted SMM2 course_data file.
const CourseDataSize = 0x5C000

var zipMagic = []byte("PK\x03\x04")

// ErrNoCourseData is returned when a payload holds no course_data file.
var ErrNoCourseData = errors.New("smmdb: payload contains no course data")

// DecodeCourse turns a download payload into a course ready for a save
// slot. The payload is either a zip holding course_data_NNN.bcd (and
// optionally course_thumb_NNN.btl) or a bare course_data file.
func DecodeCourse(payload []byte) (saves.Course, error) {
	if !bytes.HasPrefix(payload, zipMagic) {
		if len(payload) == CourseDataSize {
			return saves.Course{Data: payload}, nil
		}
		return saves.Course{}, fmt.Errorf("smmdb: unrecognised payload (%d bytes)", len(payload))
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return saves.Course{}, fmt.Errorf("smmdb: open payload: %w", err)
	}
	var c saves.Course
	for _, f := range zr.File {
		name := strings.ToLower(path.Base(f.Name))
		switch {
		case strings.HasPrefix(name, "course_data_") && strings.HasSuffix(name, ".bcd"):
			if c.Data != nil {
				continue
			}
			if c.Data, err = readZipFile(f); err != nil {
				return saves.Course{}, err
			}
		case strings.HasPrefix(name, "course_thumb_") && strings.HasSuffix(name, ".btl"):
			if c.Thumbnail != nil {
				continue
			}
			if c.Thumbnail, err = readZipFile(f); err != nil {
				return saves.Course{}, err
			}
		}
	}
	if len(c.Data) == 0 {
		return saves.Course{}, ErrNoCourseData
	}
	return c, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("smmdb: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 4*CourseDataSize))
	if err != nil {
		return nil, fmt.Errorf("smmdb: read %s: %w", f.Name, err)
	}
	return data, nil
}
