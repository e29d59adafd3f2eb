package main

import (
	"bytes"
	"syncbridge/domain"
	"syncbridge/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestReadAll_FollowsCursor(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIJournalRepository(ctrl)

	firstPage := make([]domain.Entry, pageSize)
	for i := range firstPage {
		firstPage[i] = domain.NewEntry("alice: hi", time.Now())
	}
	cursor := "line:1"

	// Given a journal spanning two pages
	gomock.InOrder(
		repository.EXPECT().List(nil, pageSize).Return(firstPage, &cursor, nil),
		repository.EXPECT().List(&cursor, pageSize).Return([]domain.Entry{domain.NewEntry("bob: bye", time.Now())}, &cursor, nil),
	)

	entries, err := readAll(repository, 0)

	req.NoError(err)
	req.Len(entries, pageSize+1)
	req.Equal("bob: bye", entries[pageSize].Line)
}

func TestReadAll_Limit(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIJournalRepository(ctrl)
	cursor := "line:2"

	repository.EXPECT().List(nil, 2).Return([]domain.Entry{
		domain.NewEntry("alice: one", time.Now()),
		domain.NewEntry("alice: two", time.Now()),
	}, &cursor, nil).Times(1)

	entries, err := readAll(repository, 2)

	req.NoError(err)
	req.Len(entries, 2)
}

func TestRender(t *testing.T) {
	req := require.New(t)
	entry := domain.NewEntry("[read] bob has read the messages.", time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC))
	entry.Seq = 42
	var out bytes.Buffer

	render(&out, []domain.Entry{entry})

	req.Contains(out.String(), "42")
	req.Contains(out.String(), "2026-05-06 07:08:09")
	req.Contains(out.String(), "[read] bob has read the messages.")
	req.Contains(out.String(), "1 line(s)")
}
