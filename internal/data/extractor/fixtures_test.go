package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const attendancePage = `<!DOCTYPE html>
<html><head><title>出勤異常清單</title></head>
<body>
<form method="post" action="./FW99001Z.aspx" id="form1">
<input type="hidden" name="__EVENTTARGET" id="__EVENTTARGET" value="" />
<input type="hidden" name="__EVENTARGUMENT" id="__EVENTARGUMENT" value="" />
<input type="hidden" name="__VIEWSTATE" id="__VIEWSTATE" value="vs-page-1" />
<input type="hidden" name="__VIEWSTATEGENERATOR" id="__VIEWSTATEGENERATOR" value="A1B2C3D4" />
<input type="hidden" name="__EVENTVALIDATION" id="__EVENTVALIDATION" value="ev-page-1" />
<div id="tabs">
  <div id="tabs-1">
    <table cellspacing="0" cellpadding="3" rules="rows" id="ContentPlaceHolder1_gvNotice">
      <tr class="RowStyle"><td><span>2024/1/1</span><span>00:00:00~00:00:01</span></td></tr>
    </table>
  </div>
  <div id="tabs-2">
    <table cellspacing="0" cellpadding="3" rules="rows" id="ContentPlaceHolder1_gvWeb012" style="width:100%;border-collapse:collapse;">
      <tr class="HeaderStyle"><th scope="col">出勤日期/刷卡時間</th><th scope="col">異常原因</th><th scope="col">處理</th></tr>
      <tr class="RowStyle">
        <td><span id="ContentPlaceHolder1_gvWeb012_lblWork_Date_0">2024/3/1</span><br />
            <span id="ContentPlaceHolder1_gvWeb012_lblCard_Time_0">08:30:00&nbsp;~&nbsp;19:50:00</span></td>
        <td>加班</td><td><a href="#">申請</a></td>
      </tr>
      <tr class="AlternatingRowStyle">
        <td><span id="ContentPlaceHolder1_gvWeb012_lblWork_Date_1">&#12288;2024/3/2</span><br />
            <span id="ContentPlaceHolder1_gvWeb012_lblCard_Time_1">09:30:00 ~ 18:30:00</span></td>
        <td>遲到</td><td><a href="#">申請</a></td>
      </tr>
      <tr class="RowStyle">
        <td><span id="ContentPlaceHolder1_gvWeb012_lblWork_Date_2">2024/3/3</span><br />
            <span id="ContentPlaceHolder1_gvWeb012_lblCard_Time_2">未刷卡</span></td>
        <td>曠職</td><td></td>
      </tr>
      <tr class="PagerStyle">
        <td colspan="3"><table><tr>
          <td><span>1</span></td>
          <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvWeb012','Page$2')">2</a></td>
          <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvWeb012','Page$3')">3</a></td>
          <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvWeb012','Page$11')">...</a></td>
        </tr></table></td>
      </tr>
    </table>
  </div>
</div>
</form>
</body></html>`

// fallbackPage renames the grid with a generated prefix and drops the span ids.
const fallbackPage = `<html><body>
<input type="hidden" name="__VIEWSTATE" value="vs-fallback" />
<table id="ctl00_MainContent_gvWeb012_v2">
  <tr><th>出勤日期</th><th>說明</th></tr>
  <tr class="RowStyle">
    <td><span>備註</span><span>2024/03/05</span><span>08:00:00 ~ 18:00:00</span></td><td>加班</td><td></td>
  </tr>
  <tr class="AlternatingRowStyle">
    <td><span>2024/3/6</span><span>17:00</span></td><td>缺卡</td><td></td>
  </tr>
</table>
</body></html>`

const structurePage = `<html><body>
<table cellspacing="0" cellpadding="3" rules="rows" style="width:100%">
  <tr><th>日期</th></tr>
  <tr class="RowStyle"><td><span id="x_lblWork_Date_0">2024/4/1</span><span id="x_lblCard_Time_0">08:00:00~17:40:00</span></td><td></td><td></td></tr>
</table>
</body></html>`

const headerTextPage = `<html><body>
<table class="layout"><tr><td>
  <table class="grid">
    <tr><td>出勤日期</td><td>刷卡時間</td></tr>
    <tr class="RowStyle"><td><span>2024/5/2</span><span>08:15:00~19:00:00</span></td><td></td><td></td></tr>
  </table>
</td></tr></table>
</body></html>`

const noGridPage = `<html><body>
<table id="menu" class="nav"><tr><td>首頁</td></tr></table>
<table class="footer"><tr><td>©</td></tr></table>
</body></html>`

const statusPage = `<html><body>
<input type="hidden" name="__VIEWSTATE" value="vs-status-1" />
<table id="ContentPlaceHolder1_gvFlow211" cellspacing="0" rules="all">
  <tr class="FlowHeaderStyle"><th>加班日期</th><th>狀態</th><th>加班分鐘</th><th>調休分鐘</th></tr>
  <tr>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Date_0">2024/03/01</span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblProcess_Flag_Text_0">已核准</span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Minute_0">100</span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblChange_Minute_0">0</span></td>
  </tr>
  <tr>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Date_1">2024/03/04</span></td>
    <td></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Minute_1"></span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblChange_Minute_1">30.5</span></td>
  </tr>
  <tr>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Date_2">2024/03/05</span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblProcess_Flag_Text_2">簽核中</span></td>
    <td><span id="ContentPlaceHolder1_gvFlow211_lblOT_Minute_2">一百</span></td>
    <td></td>
  </tr>
  <tr>
    <td>合計</td><td></td><td></td><td></td>
  </tr>
  <tr class="FlowPagerStyle">
    <td colspan="4"><table><tr>
      <td><span>1</span></td>
      <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvFlow211','Page$2')">2</a></td>
      <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvFlow211','Page$3')">3</a></td>
      <td><a href="javascript:__doPostBack('ctl00$ContentPlaceHolder1$gvFlow211','Page$Last')">最末頁</a></td>
    </tr></table></td>
  </tr>
</table>
</body></html>`
