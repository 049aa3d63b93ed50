package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const deleteDataPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>FamConomy - Data Deletion</title>
  <style>
    body { font-family: -apple-system, Helvetica, Arial, sans-serif; max-width: 640px; margin: 40px auto; padding: 0 20px; color: #222; }
    h1 { font-size: 1.5em; }
    code { background: #f4f4f4; padding: 2px 5px; border-radius: 3px; }
  </style>
</head>
<body>
  <h1>Delete Your FamConomy Data</h1>
  <p>To request deletion of your account and all associated family data,
  email <a href="mailto:privacy@famconomy.app">privacy@famconomy.app</a>
  from the address registered to your account, with the subject
  <code>Data Deletion Request</code>.</p>
  <p>We will remove your profile, tasks, messages, calendar entries,
  budgets, shopping lists, wishlists, recipes and screen-time records
  within 30 days and confirm by email once complete.</p>
  <p>Deleting your account does not delete families you share with other
  members; your contributions are anonymized instead.</p>
</body>
</html>`

// DeleteDataPage serves the static data-deletion instructions required
// by the app store listing
func DeleteDataPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, deleteDataPage)
}
