package utils

import (
	"fmt"
	"html"
	"strings"
	"time"
)

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #1B1F3B; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B1F3B; line-height: 1.6; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #4F46E5; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
			.info-box { background: #EEF2FF; padding: 15px; border-radius: 4px; border-left: 4px solid #4F46E5; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header"><h1>ACADEMY</h1></div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">&copy; %d Academy. All rights reserved.</div>
		</div>
	</body>
	</html>
	`, title, bodyContent, time.Now().Year())
}

// --- Triggers ---

func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Your account has been created. Browse the catalog and start your first course today.</p>
	`, html.EscapeString(name))
	SendEmail([]string{email}, "Welcome to Academy", getEmailTemplate("Welcome Onboard!", body))
}

func SendEnrollmentEmail(email, name, courseTitle string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in:</p>
		<div class="info-box"><strong>%s</strong></div>
		<p>Complete every lesson to earn your certificate.</p>
	`, html.EscapeString(name), html.EscapeString(courseTitle))
	SendEmail([]string{email}, "Enrollment Confirmed: "+courseTitle, getEmailTemplate("Enrollment Successful", body))
}

func SendPurchaseReceiptEmail(email, name, courseTitle, amount, currency, reference string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>We received your payment of <strong>%s %s</strong> for <strong>%s</strong>.</p>
		<div class="info-box">Order reference: %s</div>
	`, html.EscapeString(name), amount, strings.ToUpper(currency), html.EscapeString(courseTitle), reference)
	SendEmail([]string{email}, "Payment Received", getEmailTemplate("Thank you for your purchase", body))
}

func SendCertificateEmail(email, name, courseTitle, certificateNumber, verifyURL string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Congratulations on completing <strong>%s</strong>!</p>
		<div class="info-box">Certificate number: <strong>%s</strong></div>
		<a href="%s" class="btn">Verify Certificate</a>
	`, html.EscapeString(name), html.EscapeString(courseTitle), certificateNumber, verifyURL)
	SendEmail([]string{email}, "Your Certificate: "+courseTitle, getEmailTemplate("Course Completed", body))
}

func SendTicketReplyEmail(email, name, subject, reply string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Our support team replied to your ticket <strong>%s</strong>:</p>
		<div class="info-box"><em>%s</em></div>
	`, html.EscapeString(name), html.EscapeString(subject), html.EscapeString(reply))
	SendEmail([]string{email}, "Re: "+subject, getEmailTemplate("Support Update", body))
}

func SendConsultationReceivedEmail(email, name string) {
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>Thanks for reaching out. An advisor will contact you shortly to schedule your consultation.</p>
	`, html.EscapeString(name))
	SendEmail([]string{email}, "We received your consultation request", getEmailTemplate("Request Received", body))
}

// DigestLine is one row in the stale consultation digest
type DigestLine struct {
	Name      string
	Email     string
	CreatedAt time.Time
}

func SendConsultationDigestEmail(to string, lines []DigestLine) {
	if to == "" || len(lines) == 0 {
		return
	}
	var rows strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&rows, "<li>%s &lt;%s&gt; waiting since %s</li>",
			html.EscapeString(l.Name), html.EscapeString(l.Email), l.CreatedAt.Format("02 Jan 2006 15:04"))
	}
	body := fmt.Sprintf(`
		<p>%d consultation request(s) have not been contacted for more than 48 hours:</p>
		<ul>%s</ul>
	`, len(lines), rows.String())
	SendEmail([]string{to}, "Pending consultations", getEmailTemplate("Consultation Digest", body))
}
