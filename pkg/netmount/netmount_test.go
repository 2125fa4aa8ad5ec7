package netmount

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsNetworkLocationMatchesGvfsMounts(t *testing.T) {
	require.True(t, IsNetworkLocation("/run/user/1000/gvfs/smb-share:server=nas,share=data/file.txt"))
	require.True(t, IsNetworkLocation("/home/alice/.GVFS/sftp:host=example/notes.md"))
	require.False(t, IsNetworkLocation("/home/alice/Documents/notes.md"))
}

func TestIsNetworkLocationMatchesUNCShares(t *testing.T) {
	require.True(t, IsNetworkLocation(`\\fileserver\share\report.docx`))
	require.False(t, IsNetworkLocation(`C:\Users\alice\report.docx`))
}
