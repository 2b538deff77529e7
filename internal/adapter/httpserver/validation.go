package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
	"github.com/fairyhunter13/internship-recommender/internal/matching"
	"github.com/fairyhunter13/internship-recommender/internal/usecase"
	"github.com/fairyhunter13/internship-recommender/pkg/textx"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

// getValidator reports json field names in validation errors.
func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

// skillsField accepts a comma separated string or a JSON array of strings.
type skillsField []string

func (s *skillsField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*s = matching.ParseSkillList(raw)
		return nil
	}
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return errSkillsType
	}
	*s = matching.ParseSkillList(strings.Join(items, "\n"))
	return nil
}

var errSkillsType = errors.New("skills must be a string or an array of strings")

// recommendRequest is the POST /v1/recommendations body. Presence of the
// profile fields is checked by domain.NewCandidateProfile so every missing
// field is reported at once; the tags only bound sizes.
type recommendRequest struct {
	Skills             skillsField `json:"skills" validate:"max=100,dive,max=100"`
	EducationLevel     string      `json:"education_level" validate:"max=50"`
	SectorInterest     string      `json:"sector_interest" validate:"max=200"`
	LocationPreference string      `json:"location_preference" validate:"max=200"`
	Experience         string      `json:"experience" validate:"max=5000"`
	Aspirations        string      `json:"aspirations" validate:"max=5000"`
	TopN               int         `json:"top_n" validate:"gte=0,lte=50"`
}

func (req recommendRequest) toUsecase() usecase.RecommendRequest {
	return usecase.RecommendRequest{
		Profile: domain.ProfileInput{
			Skills:             []string(req.Skills),
			EducationLevel:     textx.CleanField(req.EducationLevel),
			SectorInterest:     textx.CleanField(req.SectorInterest),
			LocationPreference: textx.CleanField(req.LocationPreference),
			Experience:         textx.SanitizeText(req.Experience),
			Aspirations:        textx.SanitizeText(req.Aspirations),
		},
		TopN: req.TopN,
	}
}

// decodeRecommendRequest parses and bounds-checks the body. Every failure
// is a *domain.ValidationError.
func decodeRecommendRequest(body []byte) (recommendRequest, error) {
	var req recommendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		if errors.Is(err, errSkillsType) {
			return req, domain.NewValidationError("skills", errSkillsType.Error())
		}
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return req, domain.NewValidationError(te.Field, "must be a "+te.Type.String())
		}
		return req, domain.NewValidationError("body", "invalid json")
	}
	if err := getValidator().Struct(req); err != nil {
		return req, validationFromValidator(err)
	}
	return req, nil
}

func validationFromValidator(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewValidationError("body", err.Error())
	}
	out := &domain.ValidationError{Fields: map[string]string{}}
	for _, fe := range ve {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i > 0 {
			field = field[:i]
		}
		out.Fields[field] = describeTag(fe)
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " entries"
		}
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	}
	return "failed " + fe.Tag()
}

// parseBrowseQuery reads sector, location and limit. An absent limit is 0,
// which the catalog service turns into its default.
func parseBrowseQuery(q url.Values) (usecase.BrowseFilter, error) {
	f := usecase.BrowseFilter{
		Sector:   textx.CleanField(q.Get("sector")),
		Location: textx.CleanField(q.Get("location")),
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > usecase.MaxBrowseLimit {
			return f, domain.NewValidationError("limit", fmt.Sprintf("must be an integer between 1 and %d", usecase.MaxBrowseLimit))
		}
		f.Limit = n
	}
	return f, nil
}
