package controllers_test

import (
	"net/url"
	"testing"

	"github.com/bionicotaku/lingo-services-course/internal/controllers/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestToCourseFilter(t *testing.T) {
	principal := uuid.New()
	categoryID := uuid.New()

	filter := dto.ToCourseFilter(principal, url.Values{"title": {"  go "}, "categoryId": {categoryID.String()}})
	require.Equal(t, principal, filter.Principal)
	require.Equal(t, "go", filter.Title)
	require.NotNil(t, filter.CategoryID)
	require.Equal(t, categoryID, *filter.CategoryID)

	filter = dto.ToCourseFilter(uuid.Nil, url.Values{})
	require.Nil(t, filter.CategoryID)
	require.Empty(t, filter.Title)

	filter = dto.ToCourseFilter(uuid.Nil, url.Values{"categoryId": {"nope"}})
	require.NotNil(t, filter.CategoryID)
	require.Equal(t, uuid.Nil, *filter.CategoryID)
}

func TestNewTeacherCoursesResponseRendersEmptyArray(t *testing.T) {
	resp := dto.NewTeacherCoursesResponse(nil)
	require.NotNil(t, resp.Courses)
	require.Empty(t, resp.Courses)
}
