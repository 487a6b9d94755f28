package webhook

import _ "embed"

// ReceiverScript is a Google Apps Script web app that appends each payload
// to the active sheet. Deploy it as a web app executable by anyone and use
// its /exec URL as the webhook endpoint.
//
//go:embed receiver.gs
var ReceiverScript string
