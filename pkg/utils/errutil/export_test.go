package errutil

var GoerrContext = goerrContext
