package htmlutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<div class="alert">
	These credentials   do not
	match our records.
</div>
<form method="POST" action="/admin/login">
	<input type="hidden" name="_token" value="abc123">
	<input type="email" name="email">
</form>
</body></html>`

func TestInputValue(t *testing.T) {
	doc, err := ParseDocument([]byte(loginPage))
	require.NoError(t, err)

	require.Equal(t, "abc123", InputValue(context.Background(), doc, "_token"))
	require.Equal(t, "", InputValue(context.Background(), doc, "missing"))
}

func TestCleanText(t *testing.T) {
	doc, err := ParseDocument([]byte(loginPage))
	require.NoError(t, err)

	require.Equal(t, "These credentials do not match our records.", CleanText(doc.Find(".alert")))
	require.Equal(t, "", CleanText(doc.Find(".nothing")))
}
