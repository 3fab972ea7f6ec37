package application

import "strings"

const DefaultSiteBaseURL = "https://www.tsdm39.com"

// Page markers of the forum the flows drive.
const (
	identitySelector = `a[title="访问我的空间"]`

	noticeSelector    = "#messagetext.alert_info p"
	signLoginRequired = "您需要先登录才能继续本操作"
	workLoginRequired = "请先登录再进行点击任务"

	alreadySignedSelector = "h1.mt"
	alreadySignedText     = "您今天已经签到过了或者签到时间还未开始"

	moodSelectorFormat   = "ul.qdsmile #%s"
	signRadioSelector    = "#qiandao > table.tfm > tbody > tr:nth-child(1) > td > label:nth-child(2) > input[type=radio]"
	signSubmitSelector   = "#qiandao > table:nth-child(11) > tbody > tr > td > div > a:nth-child(2)"
	workTargetSelector   = `[id^="np_advid"]`
	workFinalizeSelector = "#stopad a"
	workCheatText        = "不要作弊哦，重新进行游戏吧！"
	consumedStyleMarker  = "display: none;"
)

var moodIDs = []string{"kx", "ng", "ym", "wl", "nu", "ch", "fd", "yl", "shuai"}

type Site struct {
	BaseURL string
}

func (s Site) base() string {
	if s.BaseURL == "" {
		return DefaultSiteBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s Site) HomeURL() string  { return s.base() + "/" }
func (s Site) SignURL() string  { return s.base() + "/plugin.php?id=dsu_paulsign:sign" }
func (s Site) WorkURL() string  { return s.base() + "/plugin.php?id=np_cliworkdz:work" }
func (s Site) LoginURL() string { return s.base() + "/member.php?mod=logging&action=login" }

// consumed reports whether a work target's style marks it as used up.
func consumed(style string) bool {
	return strings.Contains(strings.Join(strings.Fields(style), " "), consumedStyleMarker)
}
