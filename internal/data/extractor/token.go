package extractor

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/penwyp/go-ssp-overtime/internal/core/model"
)

// ErrMissingToken is returned when a page lacks the view state a postback
// must echo back.
var ErrMissingToken = errors.New("page has no " + model.FieldViewState + " field")

// Token reads the continuation token from the page's hidden inputs. Only
// the view state is required; the other fields default to "".
func Token(doc *goquery.Document) (*model.ContinuationToken, error) {
	viewState, ok := hiddenValue(doc, model.FieldViewState)
	if !ok {
		return nil, ErrMissingToken
	}
	generator, _ := hiddenValue(doc, model.FieldViewStateGenerator)
	validation, _ := hiddenValue(doc, model.FieldEventValidation)
	return &model.ContinuationToken{
		ViewState:          viewState,
		ViewStateGenerator: generator,
		EventValidation:    validation,
	}, nil
}

func hiddenValue(doc *goquery.Document, name string) (string, bool) {
	input := doc.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("name", "") == name
	}).First()
	if input.Length() == 0 {
		return "", false
	}
	return input.Attr("value")
}
