// Package crawlers 提供note.com付费文章的发现与字段提取
//
// # 概述
//
// 整个流程严格串行: 一个标签页专门用于搜索结果页的滚动发现,另一个标签页专门用于逐篇文章的提取。
// 所有页面操作都经过 Page 接口,生产环境使用go-rod(RodPage),测试和 inspect --static 使用goquery(DocPage)。
//
// # 核心组件
//
// ## Discoverer (滚动发现)
//
// 打开搜索页后反复"提取链接 → 合并 → 滚动 → 随机等待",直到满足以下任一条件:
//   - 已收集数量达到limit
//   - 连续若干轮没有新增URL(停滞阈值,默认3)
//   - 达到最大轮数(默认50)
//
// 状态保存在 DiscoverySession 中, ShouldContinue 是纯函数。
//
//	d := NewDiscoverer(searchPage, DefaultDiscoveryConfig())
//	result, err := d.DiscoverKeyword(ctx, "副業", 100)
//	// result.URLs: 人气顺在前、急上升在后,去重,最多200个
//
// ## Extractor (字段提取)
//
// 每个字段对应一张按优先级排列的定位表,第一个非空结果胜出,全部失败取零值。
// 价格有五层级联:
//  1. 头部状态控件 ("¥0〜" 视为0)
//  2. 头部价格元素
//  3. 售罄/限制时的付费墙面板 (>0)
//  4. 购买按钮附近的元素 (第一个 ¥N>0)
//  5. 全文中含购买相关词的文本节点 (第一个 ¥N>0)
//
// 第5层可能误把页面其他位置的金额当作价格,这是已知的启发式风险,测试中固定了该行为。
//
// ## Retrier / ArticleScraper (重试)
//
// 每篇文章最多尝试 max_retries+1 次,两次之间固定冷却。全部失败返回 *ScrapeError,
// 可用 errors.Is(err, ErrMaxRetriesReached) 判断。批量层面的错误隔离由 core.Runner 负责。
//
//	scraper := NewArticleScraper(articlePage, NewExtractor(1500*time.Millisecond), NewRetrier(2, time.Second))
//	record, err := scraper.Scrape(ctx, "https://note.com/author/n/n123")
//
// # 错误处理
//
//   - 字段缺失: 零值,不报错
//   - 24小时气泡等待超时: 视为false,不报错
//   - 页面操作出错、导航失败: 返回错误,交给重试
//   - 浏览器层panic: 转换为 ErrBrowserCrashed
package crawlers
