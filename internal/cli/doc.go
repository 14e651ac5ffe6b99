// Package cli implements the interactive pathsocial shell.
//
// The shell is a line-oriented front end over a *store.Store: every command
// maps onto one store operation. It also listens for change events from the
// store's reconciler and tells the user when another window changed the
// data, dropping back to the logged-out prompt when their account vanished.
//
// Commands
//
//	register                       create an account
//	login [username]               start a session
//	logout                         end the session
//	whoami                         show the logged-in user
//	search <query>                 find users by username or display name
//	friends                        list your friends
//	addfriend <username>           befriend a user
//	share <type> <text> [-img p]   post a moment, optionally with an image
//	timeline                       your and your friends' moments
//	profile [username]             a user's profile and moments
//	types                          list moment types
//	stats                          counters and gauges
//	reset                          erase everything and restore the sample data
//	help                           show commands
//	exit | quit                    leave
package cli
