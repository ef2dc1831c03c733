package app

import "net/http"

type errCtx struct {
	Code  int
	Title string
	Msg   string
}

func get404() errCtx {
	return errCtx{
		Code:  http.StatusNotFound,
		Title: "Not found",
		Msg:   "Sorry, we couldn't find the page you were looking for.",
	}
}

func get405() errCtx {
	return errCtx{
		Code:  http.StatusMethodNotAllowed,
		Title: "Method not allowed",
		Msg:   "Sorry, this page only accepts GET and POST requests.",
	}
}

func get413() errCtx {
	return errCtx{
		Code:  http.StatusRequestEntityTooLarge,
		Title: "Upload too large",
		Msg:   "Sorry, the uploaded image is too large.",
	}
}

func get429() errCtx {
	return errCtx{
		Code:  http.StatusTooManyRequests,
		Title: "Too many requests",
		Msg:   "Sorry, too many charts are being checked right now. Please try again shortly.",
	}
}
