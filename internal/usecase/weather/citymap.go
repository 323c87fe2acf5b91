package weather

// cityIDs идентификаторы городов QWeather, чтобы не ходить в GEO API за частыми городами.
var cityIDs = map[string]string{
	"北京": "101010100",
	"上海": "101020100",
	"广州": "101280101",
	"深圳": "101280601",
	"杭州": "101210101",
	"成都": "101270101",
	"重庆": "101040100",
	"武汉": "101200101",
	"西安": "101110101",
	"南京": "101190101",
	"天津": "101030100",
	"苏州": "101190401",
	"长沙": "101250101",
	"郑州": "101180101",
	"青岛": "101120201",
	"大连": "101070201",
	"厦门": "101230201",
	"福州": "101230101",
	"济南": "101120101",
	"合肥": "101220101",
	"昆明": "101290101",
	"贵阳": "101260101",
	"南宁": "101300101",
	"海口": "101310101",
	"三亚": "101310201",
	"拉萨": "101140101",
	"乌鲁木齐": "101130101",
	"哈尔滨": "101050101",
	"长春": "101060101",
	"沈阳": "101070101",
	"石家庄": "101090101",
	"太原": "101100101",
	"呼和浩特": "101080101",
	"银川": "101170101",
	"兰州": "101160101",
	"西宁": "101150101",
	"南昌": "101240101",
	"无锡": "101190201",
	"宁波": "101210401",
	"东莞": "101281601",
	"佛山": "101280800",
	"温州": "101210701",
	"珠海": "101280701",
	"中山": "101281701",
	"惠州": "101280301",
	"常州": "101191101",
	"烟台": "101120501",
	"嘉兴": "101210301",
	"南通": "101190501",
	"金华": "101210901",
	"徐州": "101190801",
	"泉州": "101230501",
	"绍兴": "101210501",
	"台州": "101210601",
	"潍坊": "101120601",
	"洛阳": "101180901",
	"扬州": "101190601",
	"保定": "101090201",
	"唐山": "101090501",
	"镇江": "101190301",
	"湖州": "101210201",
	"芜湖": "101220301",
	"漳州": "101230601",
	"临沂": "101120901",
	"威海": "101121301",
	"邯郸": "101091001",
	"泰安": "101120801",
	"淮安": "101190901",
	"盐城": "101190701",
	"济宁": "101120701",
	"德州": "101120401",
	"聊城": "101121701",
	"枣庄": "101121401",
	"淄博": "101120301",
	"日照": "101121501",
	"泰州": "101191201",
	"宿迁": "101191301",
	"连云港": "101191001",
	"秦皇岛": "101091101",
	"廊坊": "101090601",
	"沧州": "101090701",
	"张家口": "101090301",
	"承德": "101090401",
	"邢台": "101090901",
	"衡水": "101090801",
	"阳泉": "101100301",
	"大同": "101100201",
	"朔州": "101100901",
	"晋城": "101100601",
	"晋中": "101100401",
	"运城": "101100701",
	"忻州": "101100501",
	"临汾": "101100801",
	"吕梁": "101101001",
	"包头": "101080201",
	"乌海": "101080301",
	"赤峰": "101080401",
	"通辽": "101080501",
	"鄂尔多斯": "101080701",
}

// cityPinyin названия городов для wttr.in.
var cityPinyin = map[string]string{
	"北京": "Beijing",
	"上海": "Shanghai",
	"广州": "Guangzhou",
	"深圳": "Shenzhen",
	"杭州": "Hangzhou",
	"成都": "Chengdu",
	"重庆": "Chongqing",
	"武汉": "Wuhan",
	"西安": "Xian",
	"南京": "Nanjing",
	"天津": "Tianjin",
	"苏州": "Suzhou",
	"长沙": "Changsha",
	"郑州": "Zhengzhou",
	"青岛": "Qingdao",
	"大连": "Dalian",
	"厦门": "Xiamen",
	"福州": "Fuzhou",
	"济南": "Jinan",
	"合肥": "Hefei",
	"昆明": "Kunming",
	"贵阳": "Guiyang",
	"南宁": "Nanning",
	"海口": "Haikou",
	"三亚": "Sanya",
	"拉萨": "Lasa",
	"乌鲁木齐": "Urumqi",
	"哈尔滨": "Harbin",
	"长春": "Changchun",
	"沈阳": "Shenyang",
	"石家庄": "Shijiazhuang",
	"太原": "Taiyuan",
	"呼和浩特": "Hohhot",
	"银川": "Yinchuan",
	"兰州": "Lanzhou",
	"西宁": "Xining",
	"南昌": "Nanchang",
	"无锡": "Wuxi",
	"宁波": "Ningbo",
	"东莞": "Dongguan",
	"佛山": "Foshan",
	"温州": "Wenzhou",
	"珠海": "Zhuhai",
	"中山": "Zhongshan",
	"惠州": "Huizhou",
}
