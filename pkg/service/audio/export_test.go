package audio

var NormalizeExit = normalizeExit

func (f *FFmpeg) Args() []string {
	return f.args()
}
