package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Review struct {
	ID      int      `json:"id"`
	Author  string   `json:"author" validate:"not_blank,max=10"`
	Email   *string  `json:"email" validate:"email"`
	Rating  int      `json:"rating" validate:"min=0,max=5"`
	Body    string   `json:"body" validate:"min=3,groups=review:write"`
	Code    string   `json:"code" validate:"pattern=^[A-Z]{2,3}$"`
	Tags    []string `json:"tags" validate:"count=:2"`
	Status  string   `json:"status" validate:"choice=draft|published"`
	Website string   `json:"website" validate:"url"`
}

func (r *Review) APIConstraints() []Constraint {
	return []Constraint{
		{Name: "published reviews need a body", Expression: `object.status != "published" || object.body != ""`, PropertyPath: "body"},
		{Name: "admin only", Expression: `"ROLE_ADMIN" in roles`, Message: "Only admins may review.", Groups: []string{"admin"}},
	}
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	classes := class.NewRegistry()
	require.NoError(t, classes.Register("Review", Review{}))
	checker, err := security.NewCELChecker(nil, nil)
	require.NoError(t, err)
	return NewEngine(classes, checker, nil)
}

func violations(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *apierr.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	out := map[string]string{}
	for _, v := range verr.Violations {
		out[v.PropertyPath] = v.Message
	}
	return out
}

func valid() *Review {
	return &Review{Author: "ann", Rating: 4, Status: "draft"}
}

func TestEngine_Valid(t *testing.T) {
	assert.NoError(t, newEngine(t).Validate(context.Background(), valid(), nil))
}

func TestEngine_PropertyRules(t *testing.T) {
	email := "not an email"
	r := &Review{
		Author:  "",
		Email:   &email,
		Rating:  9,
		Code:    "abc",
		Tags:    []string{"a", "b", "c"},
		Status:  "archived",
		Website: "example.com",
	}

	err := newEngine(t).Validate(context.Background(), r, nil)
	assert.True(t, apierr.IsValidation(err))
	assert.Equal(t, 422, apierr.HTTPStatus(err))
	assert.Equal(t, map[string]string{
		"author":  "This value should not be blank.",
		"email":   "This value is not a valid email address.",
		"rating":  "This value should be 5 or less.",
		"code":    "This value is not valid.",
		"tags":    "This collection should contain 2 elements or less.",
		"status":  "The value you selected is not a valid choice.",
		"website": "This value is not a valid URL.",
	}, violations(t, err))
}

func TestEngine_Groups(t *testing.T) {
	e := newEngine(t)
	r := valid()
	r.Body = "ok"

	assert.NoError(t, e.Validate(context.Background(), r, []string{"review:read"}))

	err := e.Validate(context.Background(), r, []string{"review:write"})
	assert.Equal(t, map[string]string{
		"body": "This value is too short. It should have 3 characters or more.",
	}, violations(t, err))
}

func TestEngine_Constraints(t *testing.T) {
	e := newEngine(t)
	r := valid()
	r.Status = "published"

	err := e.Validate(context.Background(), r, nil)
	assert.Equal(t, map[string]string{"body": "published reviews need a body"}, violations(t, err))

	err = e.Validate(context.Background(), valid(), []string{"admin"})
	assert.Equal(t, map[string]string{"": "Only admins may review."}, violations(t, err))

	ctx := security.WithUser(context.Background(), &security.User{ID: "1", Roles: []string{"ROLE_ADMIN"}})
	assert.NoError(t, e.Validate(ctx, valid(), []string{"admin"}))
}

func TestEngine_WithoutEvaluator(t *testing.T) {
	r := valid()
	r.Status = "published"
	assert.NoError(t, NewEngine(nil, nil, nil).Validate(context.Background(), r, nil))
}

func TestEngine_IgnoresNonStructs(t *testing.T) {
	e := newEngine(t)
	var nilReview *Review
	assert.NoError(t, e.Validate(context.Background(), nilReview, nil))
	assert.NoError(t, e.Validate(context.Background(), map[string]interface{}{}, nil))
}

type badTag struct {
	Name string `json:"name" validate:"lenght=3"`
}

func TestEngine_InvalidTag(t *testing.T) {
	err := newEngine(t).Validate(context.Background(), &badTag{}, nil)
	assert.True(t, apierr.IsConfiguration(err))
}

func TestParseTag(t *testing.T) {
	rules, groups, err := ParseTag("not_blank,min=1,groups=a|b,pattern=^a,b$")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, groups)
	require.Len(t, rules, 3)
	assert.Equal(t, NotBlankRule{}, rules[0])
	assert.Equal(t, MinRule{Min: 1}, rules[1])
	require.IsType(t, PatternRule{}, rules[2])
	assert.Equal(t, "^a,b$", rules[2].(PatternRule).Pattern.String())

	_, _, err = ParseTag("min=abc")
	assert.Error(t, err)
	_, _, err = ParseTag("count=x:1")
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		value interface{}
		ok    bool
	}{
		{"min number", MinRule{Min: 2}, 2, true},
		{"min number below", MinRule{Min: 2}, 1.5, false},
		{"min string", MinRule{Min: 2}, "héé", true},
		{"min not a number", MinRule{Min: 2}, true, false},
		{"max uint", MaxRule{Max: 2}, uint8(3), false},
		{"nil passes", MaxRule{Max: 2}, nil, true},
		{"blank slice", NotBlankRule{}, []string{}, false},
		{"blank spaces", NotBlankRule{}, "  ", false},
		{"zero is not blank", NotBlankRule{}, 0, true},
		{"email", EmailRule{}, "ann@example.com", true},
		{"empty email", EmailRule{}, "", true},
		{"url", URLRule{}, "https://example.com/a", true},
		{"phone", PhoneRule{}, "+33612345678", true},
		{"bad phone", PhoneRule{}, "0612345678", false},
		{"count min", CountRule{Min: 1, Max: -1}, map[string]int{}, false},
		{"count not a collection", CountRule{Min: 1, Max: -1}, 3, false},
		{"choice", ChoiceRule{Choices: []string{"1", "2"}}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.rule.Check(tt.value) == "")
		})
	}
}
