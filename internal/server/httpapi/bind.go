package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/go-playground/validator/v10"
)

const (
	imageField = "image"
	// formOverhead is allowed on top of the image for the text fields and
	// multipart framing.
	formOverhead = 1 << 20
)

// binder decodes request bodies into validated structs. Bodies are either
// JSON or multipart/form-data, where the optional file part named "image"
// carries an image.
type binder struct {
	validate     *validator.Validate
	maxImageSize int64
}

func newBinder(maxImageSize int64) *binder {
	return &binder{validate: validator.New(), maxImageSize: maxImageSize}
}

// bind fills dst from the request and validates it. The returned upload is
// nil when no image was sent. Any decode or validation problem is reported
// as common.ErrValidationFailed.
func (b *binder) bind(w http.ResponseWriter, r *http.Request, dst any) (*models.ImageUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, b.maxImageSize+formOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		upload *models.ImageUpload
		err    error
	)
	if mediaType == "multipart/form-data" {
		upload, err = b.bindMultipart(r, dst)
	} else {
		err = json.NewDecoder(r.Body).Decode(dst)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
	}

	if err := b.validate.Struct(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
	}
	return upload, nil
}

func (b *binder) bindMultipart(r *http.Request, dst any) (*models.ImageUpload, error) {
	if err := r.ParseMultipartForm(b.maxImageSize + formOverhead); err != nil {
		return nil, err
	}

	// All text fields are strings, so the form maps directly onto the
	// request struct's json tags.
	fields := make(map[string]string, len(r.MultipartForm.Value))
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > b.maxImageSize {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", header.Size, b.maxImageSize)
	}
	data, err := io.ReadAll(io.LimitReader(file, b.maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > b.maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", b.maxImageSize)
	}

	return &models.ImageUpload{Data: data, ContentType: header.Header.Get("Content-Type")}, nil
}
