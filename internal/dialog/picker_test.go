package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/ncruces/zenity"
	"github.com/stretchr/testify/require"
)

func fakePicker(paths []string, err error) *NativePicker {
	return &NativePicker{
		selectDirs: func(opts ...zenity.Option) ([]string, error) {
			return paths, err
		},
	}
}

func TestPickFolderSelected(t *testing.T) {
	t.Parallel()

	var gotOpts int
	p := &NativePicker{selectDirs: func(opts ...zenity.Option) ([]string, error) {
		gotOpts = len(opts)
		return []string{"/home/u/save"}, nil
	}}
	res, err := p.PickFolder(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, gotOpts)
	require.Equal(t, Result{Kind: Selected, Path: "/home/u/save"}, res)
}

func TestPickFolderMultipleAndEmpty(t *testing.T) {
	t.Parallel()

	res, err := fakePicker([]string{"/a", "/b"}, nil).PickFolder(context.Background())
	require.NoError(t, err)
	require.Equal(t, Multiple, res.Kind)
	require.Equal(t, []string{"/a", "/b"}, res.Paths)

	res, err = fakePicker([]string{" "}, nil).PickFolder(context.Background())
	require.NoError(t, err)
	require.Equal(t, Cancelled, res.Kind)
}

func TestPickFolderCancelled(t *testing.T) {
	t.Parallel()

	res, err := fakePicker(nil, zenity.ErrCanceled).PickFolder(context.Background())
	require.NoError(t, err)
	require.Equal(t, Result{Kind: Cancelled}, res)
}

func TestPickFolderFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("cannot open display")
	_, err := fakePicker(nil, cause).PickFolder(context.Background())
	var de *Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, "zenity", de.Tool)
	require.ErrorIs(t, err, cause)
}
