// Package mail defines the contracts for sending email messages.
//
// The rest of the application works with the Mail interface and the Message
// payload; the concrete delivery mechanism (SMTP through go-mail) lives in
// this package as well.
package mail
