package api

import (
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/news"
)

// The reader page is a single self-contained document; template
// auto-escaping covers the scraped titles and content.
var pageTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>BTC资讯阅读器 - 金色财经</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        .header { text-align: center; margin-bottom: 30px; color: white; }
        .header h1 { font-size: 2.5rem; margin-bottom: 10px; }
        .header p { font-size: 1.1rem; opacity: 0.9; }
        .keywords {
            text-align: center; color: white; margin-bottom: 20px;
            font-size: 0.95rem; opacity: 0.85;
        }
        .keywords strong { color: #ffd700; }
        .controls {
            display: flex; justify-content: center; gap: 20px;
            margin-bottom: 30px; flex-wrap: wrap;
        }
        .btn {
            padding: 12px 24px; border-radius: 25px;
            background: rgba(255,255,255,0.2); color: white;
            text-decoration: none; font-size: 1rem;
        }
        .btn:hover { background: rgba(255,255,255,0.3); }
        .stats { display: flex; justify-content: center; gap: 30px; margin-bottom: 30px; }
        .stat-item { text-align: center; color: white; }
        .stat-number { font-size: 2rem; font-weight: bold; display: block; }
        .stat-label { font-size: 0.9rem; opacity: 0.8; }
        .news-grid {
            display: grid; grid-template-columns: repeat(auto-fit, minmax(400px, 1fr));
            gap: 20px;
        }
        .news-card {
            background: rgba(255,255,255,0.95); border-radius: 15px; padding: 25px;
            box-shadow: 0 8px 32px rgba(0,0,0,0.1);
        }
        .news-header {
            display: flex; justify-content: space-between; align-items: center;
            margin-bottom: 15px; padding-bottom: 10px; border-bottom: 1px solid #eee;
        }
        .news-source {
            background: linear-gradient(45deg, #667eea, #764ba2); color: white;
            padding: 4px 12px; border-radius: 12px; font-size: 0.8rem;
        }
        .news-time { font-size: 0.9rem; color: #999; }
        .news-title { font-size: 1.3rem; font-weight: bold; color: #333; margin-bottom: 15px; }
        .news-content { color: #666; line-height: 1.6; margin-bottom: 15px; }
        .news-meta {
            display: flex; justify-content: space-between; align-items: center;
            font-size: 0.9rem; color: #999; border-top: 1px solid #eee; padding-top: 15px;
        }
        .news-link { color: #667eea; text-decoration: none; font-weight: 500; }
        .empty-state { text-align: center; color: white; padding: 60px 20px; }
        @media (max-width: 768px) {
            .news-grid { grid-template-columns: 1fr; }
            .header h1 { font-size: 2rem; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🚀 BTC资讯阅读器</h1>
            <p>基于金色财经ID递增策略 - 每{{.IntervalMinutes}}分钟自动更新</p>
        </div>

        <div class="keywords">
            <strong>监控关键词：</strong>{{.Keywords}}
        </div>

        <div class="controls">
            <a href="/api/refresh" class="btn">🔄 手动刷新</a>
            <a href="/api/status" class="btn">📊 系统状态</a>
        </div>

        <div class="stats">
            <div class="stat-item">
                <span class="stat-number">{{.Total}}</span>
                <span class="stat-label">总资讯数</span>
            </div>
            <div class="stat-item">
                <span class="stat-number">{{.CurrentTime}}</span>
                <span class="stat-label">北京时间</span>
            </div>
        </div>

        <div class="news-grid">
            {{if .Records}}{{range .Records}}
            <div class="news-card">
                <div class="news-header">
                    <div class="news-source">{{.Source}}</div>
                    <div class="news-time">{{.Time}}</div>
                </div>
                <div class="news-title">{{.Title}}</div>
                <div class="news-content">{{.Content}}</div>
                <div class="news-meta">
                    <a href="{{.Link}}" target="_blank" class="news-link">查看原文 →</a>
                    <span class="news-id">ID: {{.ID}}</span>
                </div>
            </div>
            {{end}}{{else}}
            <div class="empty-state">
                <h3>暂无BTC相关资讯</h3>
                <p>系统正在抓取最新数据，请稍后刷新页面</p>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>`))

type pageData struct {
	Records         []news.Record
	Total           int
	CurrentTime     string
	Keywords        string
	IntervalMinutes int
}

func (s *Server) renderPage(w http.ResponseWriter, records []news.Record) {
	data := pageData{
		Records:         records,
		Total:           len(records),
		CurrentTime:     news.FormatTime(s.clock.Now()),
		Keywords:        strings.Join(s.cfg.Source.Keywords, ", "),
		IntervalMinutes: s.cfg.Scheduler.IntervalMinutes,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}
